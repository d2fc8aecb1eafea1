package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	password.UseMinCost()
}

// recordingSender keeps every message for assertions
type recordingSender struct {
	mu       sync.Mutex
	messages []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingSender) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.Event)
	}
	return out
}

func (r *recordingSender) last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}
	}
	return r.messages[len(r.messages)-1]
}

// env is one isolated database with every service wired
type env struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	store *repositories.Store
	sent  *recordingSender

	deliveries *DeliveryService
	lifecycle  *LifecycleService
	lorries    *LorryService
	farmers    *FarmerService
	advances   *AdvanceService
	summary    *SummaryService
	users      *UserService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := newTestDB(t)
	store := repositories.NewStore(db)
	sent := &recordingSender{}
	notifier := NewNotificationService(sent)
	calculator := calc.NewCalculator(nil)
	summary := NewSummaryService(store, nil, nil)

	return &env{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		store:      store,
		sent:       sent,
		deliveries: NewDeliveryService(store, calculator),
		lifecycle:  NewLifecycleService(store, calculator, notifier, summary),
		lorries:    NewLorryService(store),
		farmers:    NewFarmerService(store),
		advances:   NewAdvanceService(store),
		summary:    summary,
		users:      NewUserService(store, notifier),
	}
}

func (e *env) org(name string) *models.Organization {
	e.t.Helper()
	org := &models.Organization{Name: name, Status: domain.OrganizationStatusActive}
	if err := e.store.Organizations.Create(e.ctx, org); err != nil {
		e.t.Fatalf("create organization: %v", err)
	}
	return org
}

func (e *env) user(org *models.Organization, role domain.Role, status domain.UserStatus, email string) (*models.User, domain.Identity) {
	e.t.Helper()
	hashed, err := password.Hash("secret-pass")
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u := &models.User{Name: email, Email: email, Password: hashed, Role: role, Status: status}
	if org != nil {
		u.OrganizationID = &org.ID
	}
	if err := e.store.Users.Create(e.ctx, u); err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	return u, u.Identity()
}

func (e *env) farmer(admin domain.Identity, name string) *models.Farmer {
	e.t.Helper()
	f, err := e.farmers.Create(e.ctx, admin, &CreateFarmerInput{Name: name, Village: "Ban Nong"})
	if err != nil {
		e.t.Fatalf("create farmer: %v", err)
	}
	return f
}

func (e *env) assignedLorry(admin domain.Identity, plate string, fmID uint) *models.Lorry {
	e.t.Helper()
	l, err := e.lorries.Create(e.ctx, admin, &CreateLorryInput{PlateNumber: plate, CapacityKg: 10000})
	if err != nil {
		e.t.Fatalf("create lorry: %v", err)
	}
	l, err = e.lorries.Assign(e.ctx, admin, l.ID, &AssignLorryInput{FieldManagerID: fmID})
	if err != nil {
		e.t.Fatalf("assign lorry: %v", err)
	}
	return l
}

// farm is a ready organization: admin, field manager, farmer, assigned lorry
type farm struct {
	org     *models.Organization
	admin   domain.Identity
	fm      domain.Identity
	fmUser  *models.User
	farmer  *models.Farmer
	lorry   *models.Lorry
	adminID uint
}

func (e *env) farm(name string) *farm {
	e.t.Helper()
	org := e.org(name)
	adminUser, admin := e.user(org, domain.RoleFarmAdmin, domain.UserStatusApproved, strings.ToLower(name)+"-admin@example.com")
	fmUser, fm := e.user(org, domain.RoleFieldManager, domain.UserStatusApproved, strings.ToLower(name)+"-fm@example.com")
	return &farm{
		org:     org,
		admin:   admin,
		adminID: adminUser.ID,
		fm:      fm,
		fmUser:  fmUser,
		farmer:  e.farmer(admin, "Somchai"),
		lorry:   e.assignedLorry(admin, name+"-1234", fmUser.ID),
	}
}

func scenarioBags() []float64 {
	return []float64{45.5, 46.2, 44.8, 45.9, 46.1}
}

func (e *env) delivery(f *farm, bags []float64) *models.Delivery {
	e.t.Helper()
	d, err := e.deliveries.Create(e.ctx, f.fm, &CreateDeliveryInput{
		LorryID:         f.lorry.ID,
		FarmerID:        f.farmer.ID,
		BagsCount:       len(bags),
		BagWeights:      bags,
		MoistureContent: 13.5,
	})
	if err != nil {
		e.t.Fatalf("create delivery: %v", err)
	}
	return d
}

func expectKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
