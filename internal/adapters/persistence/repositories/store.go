package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories bound to one *gorm.DB, which may be a
// transaction.
type Store struct {
	db *gorm.DB

	Organizations OrganizationRepository
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Invitations   InvitationRepository
	Farmers       FarmerRepository
	Lorries       LorryRepository
	Deliveries    DeliveryRepository
	Advances      AdvanceRepository
}

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Organizations: NewOrganizationRepository(db),
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Invitations:   NewInvitationRepository(db),
		Farmers:       NewFarmerRepository(db),
		Lorries:       NewLorryRepository(db),
		Deliveries:    NewDeliveryRepository(db),
		Advances:      NewAdvanceRepository(db),
	}
}

// Transaction runs fn with a store bound to a single database transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
