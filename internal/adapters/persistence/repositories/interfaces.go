package repositories

import (
	"context"
	"errors"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
)

// ErrStaleVersion is returned when an optimistic update matched no row
var ErrStaleVersion = errors.New("record was modified by another request")

// OrganizationRepository defines organization repository interface
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	List(ctx context.Context, offset, limit int) ([]*models.Organization, int64, error)
}

// UserFilter narrows user listings
type UserFilter struct {
	OrganizationID *uint
	Role           *domain.Role
	Status         *domain.UserStatus
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// InvitationRepository defines invitation repository interface
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uint) (*models.Invitation, error)
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	Update(ctx context.Context, inv *models.Invitation) error
	ListByOrganization(ctx context.Context, orgID uint, status *domain.InvitationStatus) ([]*models.Invitation, error)
	ExistsPending(ctx context.Context, orgID uint, email string) (bool, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// FarmerFilter narrows farmer listings
type FarmerFilter struct {
	Search string
	Status *domain.FarmerStatus
}

// FarmerRepository defines farmer repository interface
type FarmerRepository interface {
	Create(ctx context.Context, farmer *models.Farmer) error
	GetByID(ctx context.Context, id uint) (*models.Farmer, error)
	Update(ctx context.Context, farmer *models.Farmer) error
	List(ctx context.Context, orgID uint, filter FarmerFilter, offset, limit int) ([]*models.Farmer, int64, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Farmer, error)
	CountByOrganization(ctx context.Context, orgID uint) (int64, error)
}

// LorryRepository defines lorry repository interface
type LorryRepository interface {
	Create(ctx context.Context, lorry *models.Lorry) error
	GetByID(ctx context.Context, id uint) (*models.Lorry, error)
	// Update writes the lorry if its version is unchanged and bumps it
	Update(ctx context.Context, lorry *models.Lorry) error
	List(ctx context.Context, orgID uint, status *domain.LorryStatus, offset, limit int) ([]*models.Lorry, int64, error)
	ExistsByPlate(ctx context.Context, orgID uint, plate string, excludeID uint) (bool, error)
	CountByStatus(ctx context.Context, orgID uint) (map[domain.LorryStatus]int64, error)
}

// DeliveryFilter narrows delivery listings
type DeliveryFilter struct {
	LorryID        *uint
	FarmerID       *uint
	FieldManagerID *uint
	Status         *domain.DeliveryStatus
}

// DeliveryRepository defines delivery repository interface
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id uint) (*models.Delivery, error)
	// Update writes the delivery if its version is unchanged and bumps it
	Update(ctx context.Context, delivery *models.Delivery) error
	Delete(ctx context.Context, delivery *models.Delivery) error
	List(ctx context.Context, orgID uint, filter DeliveryFilter, offset, limit int) ([]*models.Delivery, int64, error)
	ListByLorry(ctx context.Context, lorryID uint) ([]*models.Delivery, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]*models.Delivery, error)
	ExistsOpenForFarmer(ctx context.Context, lorryID, farmerID uint) (bool, error)
}

// AdvanceRepository defines advance payment repository interface
type AdvanceRepository interface {
	Create(ctx context.Context, advance *models.AdvancePayment) error
	GetByID(ctx context.Context, id uint) (*models.AdvancePayment, error)
	Update(ctx context.Context, advance *models.AdvancePayment) error
	ListByFarmer(ctx context.Context, farmerID uint, offset, limit int) ([]*models.AdvancePayment, int64, error)
	// ListOutstanding returns COMPLETED advances not reconciled against any delivery
	ListOutstanding(ctx context.Context, farmerID uint) ([]*models.AdvancePayment, error)
	// ListReconcilable returns COMPLETED advances that are unreconciled or already linked to deliveryID
	ListReconcilable(ctx context.Context, farmerID, deliveryID uint) ([]*models.AdvancePayment, error)
	Reconcile(ctx context.Context, ids []uint, deliveryID uint, at time.Time) error
	ReleaseByDelivery(ctx context.Context, deliveryID uint) error
}
