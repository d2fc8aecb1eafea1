package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"corntrack/docs"
	"corntrack/internal/adapters/http/middleware"
	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/config"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/domain"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/jwt"
	"corntrack/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Kind    domain.Kind     `json:"kind"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	app    *fiber.App
	store  *repositories.Store
	signer *jwt.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	password.UseMinCost()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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

	cfg := &config.Config{AppMode: "development", Cookie: config.CookieConfig{SameSite: "Lax"}}
	store := repositories.NewStore(db)
	signer := jwt.NewSigner("access-secret", "refresh-secret", 15, 7)
	notifier := services.NewNotificationService(nil)
	calculator := calc.NewCalculator(nil)
	summary := services.NewSummaryService(store, nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, &Services{
		Store:       store,
		Signer:      signer,
		Auth:        services.NewAuthService(store, signer, notifier),
		Users:       services.NewUserService(store, notifier),
		Invitations: services.NewInvitationService(store, notifier, 0),
		Farmers:     services.NewFarmerService(store),
		Lorries:     services.NewLorryService(store),
		Deliveries:  services.NewDeliveryService(store, calculator),
		Lifecycle:   services.NewLifecycleService(store, calculator, notifier, summary),
		Advances:    services.NewAdvanceService(store),
		Summary:     summary,
	}, cfg)

	return &testServer{t: t, app: app, store: store, signer: signer}
}

func (s *testServer) user(orgID uint, role domain.Role, email string) (*models.User, string) {
	s.t.Helper()
	hashed, err := password.Hash("secret-pass")
	if err != nil {
		s.t.Fatalf("hash: %v", err)
	}
	u := &models.User{Name: email, Email: email, Password: hashed, Role: role, Status: domain.UserStatusApproved}
	if orgID != 0 {
		u.OrganizationID = &orgID
	}
	if err := s.store.Users.Create(context.Background(), u); err != nil {
		s.t.Fatalf("create user: %v", err)
	}
	token, err := s.signer.GenerateAccessToken(u.Identity(), u.Email)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return u, token
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK || body.Status != "ok" || body.Checks["database"] != "healthy" {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
}

func TestSwaggerDocumentsAPIRoutes(t *testing.T) {
	s := newTestServer(t)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("swagger doc: %v", err)
	}

	params := strings.NewReplacer(":id", "{id}")
	checked := 0
	for _, r := range s.app.GetRoutes(true) {
		switch r.Method {
		case fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete:
		default:
			continue
		}
		if !strings.HasPrefix(r.Path, "/api/v1/") {
			continue
		}
		path := params.Replace(strings.TrimRight(strings.TrimPrefix(r.Path, "/api/v1"), "/"))
		if path == "" {
			continue
		}
		if _, ok := doc.Paths[path][strings.ToLower(r.Method)]; !ok {
			t.Errorf("%s %s missing from swagger doc", r.Method, path)
		}
		checked++
	}
	if checked < 40 {
		t.Errorf("checked %d routes, expected the full API", checked)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	paths := []string{"/api/v1/deliveries", "/api/v1/lorries", "/api/v1/farmers", "/api/v1/summary", "/api/v1/auth/me"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			status, _ := s.do("GET", path, "", nil)
			if status != fiber.StatusUnauthorized {
				t.Errorf("status = %d, expected 401", status)
			}
		})
	}

	status, _ := s.do("GET", "/api/v1/deliveries", "garbage", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("invalid token status = %d, expected 401", status)
	}
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	_, rootToken := s.user(0, domain.RoleApplicationAdmin, "root@example.com")

	status, env := s.do("GET", "/api/v1/deliveries", rootToken, nil)
	if status != fiber.StatusForbidden {
		t.Errorf("application admin on deliveries = %d %+v, expected 403", status, env)
	}

	status, _ = s.do("GET", "/api/v1/admin/organizations", rootToken, nil)
	if status != fiber.StatusOK {
		t.Errorf("application admin on organizations = %d, expected 200", status)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	org := &models.Organization{Name: "Alpha", Status: domain.OrganizationStatusActive}
	if err := s.store.Organizations.Create(context.Background(), org); err != nil {
		t.Fatalf("create organization: %v", err)
	}
	s.user(org.ID, domain.RoleFieldManager, "fm@example.com")

	status, env := s.do("POST", "/api/v1/auth/login", "", map[string]string{"email": "fm@example.com", "password": "wrong-pass"})
	if status != fiber.StatusUnauthorized {
		t.Errorf("bad password = %d, expected 401", status)
	}

	status, env = s.do("POST", "/api/v1/auth/login", "", map[string]string{"email": "fm@example.com", "password": "secret-pass"})
	if status != fiber.StatusOK {
		t.Fatalf("login = %d %+v", status, env)
	}
	auth := decode[services.AuthResponse](t, env)
	if auth.User == nil || auth.User.OrganizationName != "Alpha" {
		t.Errorf("login user = %+v", auth.User)
	}

	status, env = s.do("GET", "/api/v1/auth/me", auth.AccessToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("me = %d %+v", status, env)
	}
	me := decode[struct {
		User *models.UserResponse `json:"user"`
	}](t, env)
	if me.User == nil {
		t.Fatalf("me without user: %s", env.Data)
	}
	if me.User.ID == 0 || me.User.Email != "fm@example.com" || me.User.OrganizationName != "Alpha" {
		t.Errorf("me = %+v", me.User)
	}
}

func TestDeliveryFlow(t *testing.T) {
	s := newTestServer(t)
	org := &models.Organization{Name: "Green Valley", Status: domain.OrganizationStatusActive}
	if err := s.store.Organizations.Create(context.Background(), org); err != nil {
		t.Fatalf("create organization: %v", err)
	}
	_, adminToken := s.user(org.ID, domain.RoleFarmAdmin, "admin@example.com")
	fm, fmToken := s.user(org.ID, domain.RoleFieldManager, "fm@example.com")

	status, env := s.do("POST", "/api/v1/farmers", adminToken, map[string]string{"name": "Somchai", "village": "Ban Nong"})
	if status != fiber.StatusCreated {
		t.Fatalf("create farmer = %d %+v", status, env)
	}
	farmer := decode[models.Farmer](t, env)

	status, env = s.do("POST", "/api/v1/lorries", adminToken, map[string]interface{}{"plate_number": "AB-1234"})
	if status != fiber.StatusCreated {
		t.Fatalf("create lorry = %d %+v", status, env)
	}
	lorry := decode[models.Lorry](t, env)

	status, env = s.do("POST", fmt.Sprintf("/api/v1/lorries/%d/assign", lorry.ID), adminToken, map[string]uint{"field_manager_id": fm.ID})
	if status != fiber.StatusOK {
		t.Fatalf("assign = %d %+v", status, env)
	}

	for _, a := range []float64{500, 300} {
		status, env = s.do("POST", fmt.Sprintf("/api/v1/farmers/%d/advances", farmer.ID), adminToken, map[string]float64{"amount": a})
		if status != fiber.StatusCreated {
			t.Fatalf("advance = %d %+v", status, env)
		}
	}

	create := map[string]interface{}{
		"lorry_id":         lorry.ID,
		"farmer_id":        farmer.ID,
		"bags_count":       5,
		"bag_weights":      []float64{45.5, 46.2, 44.8, 45.9, 46.1},
		"moisture_content": 13.5,
	}
	status, env = s.do("POST", "/api/v1/deliveries", fmToken, create)
	if status != fiber.StatusCreated {
		t.Fatalf("create delivery = %d %+v", status, env)
	}
	delivery := decode[models.DeliveryResponse](t, env)
	if delivery.GrossWeight != 228.5 || delivery.NetWeight != 226 || delivery.PricePerKg != nil {
		t.Errorf("delivery = %+v", delivery)
	}

	// second open delivery for the same farmer
	status, env = s.do("POST", "/api/v1/deliveries", fmToken, create)
	if status != fiber.StatusConflict || env.Kind != domain.KindConflict {
		t.Errorf("duplicate = %d %+v, expected 409 ConflictError", status, env)
	}

	// mismatched bag count
	bad := map[string]interface{}{"lorry_id": lorry.ID, "farmer_id": farmer.ID, "bags_count": 3, "bag_weights": []float64{40}}
	status, env = s.do("POST", "/api/v1/deliveries", fmToken, bad)
	if status != fiber.StatusBadRequest || env.Kind != domain.KindValidation {
		t.Errorf("bad bags = %d %+v, expected 400 ValidationError", status, env)
	}

	// field managers cannot price
	pricePath := fmt.Sprintf("/api/v1/deliveries/%d/pricing", delivery.ID)
	status, env = s.do("PUT", pricePath, fmToken, map[string]float64{"price_per_kg": 25.5})
	if status != fiber.StatusForbidden || env.Kind != domain.KindPermission {
		t.Errorf("fm pricing = %d %+v, expected 403 PermissionError", status, env)
	}

	status, env = s.do("PUT", pricePath, adminToken, map[string]float64{"price_per_kg": 25.5})
	if status != fiber.StatusOK {
		t.Fatalf("pricing = %d %+v", status, env)
	}
	priced := decode[models.DeliveryResponse](t, env)
	if priced.TotalValue == nil || *priced.TotalValue != 5763 || priced.FinalAmount == nil || *priced.FinalAmount != 4963 {
		t.Errorf("priced = total %v final %v", priced.TotalValue, priced.FinalAmount)
	}

	status, env = s.do("POST", fmt.Sprintf("/api/v1/lorries/%d/submit", lorry.ID), fmToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("submit = %d %+v", status, env)
	}
	status, env = s.do("POST", fmt.Sprintf("/api/v1/lorries/%d/send-to-dealer", lorry.ID), adminToken, map[string]string{"dealer_name": "Mill Co"})
	if status != fiber.StatusOK {
		t.Fatalf("send to dealer = %d %+v", status, env)
	}

	status, env = s.do("PUT", fmt.Sprintf("/api/v1/deliveries/%d", delivery.ID), fmToken, map[string]string{"notes": "late"})
	if status != fiber.StatusUnprocessableEntity || env.Kind != domain.KindInvalidState {
		t.Errorf("late edit = %d %+v, expected 422 InvalidStateError", status, env)
	}

	status, env = s.do("GET", "/api/v1/summary", adminToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("summary = %d %+v", status, env)
	}
	summary := decode[services.OrganizationSummary](t, env)
	if summary.TotalDeliveries != 1 || summary.FinalAmount != 4963 {
		t.Errorf("summary = %+v", summary.DeliverySummary)
	}

	status, _ = s.do("GET", "/api/v1/deliveries/abc", adminToken, nil)
	if status != fiber.StatusBadRequest {
		t.Errorf("bad id = %d, expected 400", status)
	}
	status, _ = s.do("GET", "/api/v1/deliveries/9999", adminToken, nil)
	if status != fiber.StatusNotFound {
		t.Errorf("missing delivery = %d, expected 404", status)
	}
}
