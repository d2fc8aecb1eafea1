package config

import (
	"errors"
	"log"
	"strings"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db   *gorm.DB
	seed SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, seed SeedConfig) *Seeder {
	return &Seeder{db: db, seed: seed}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedApplicationAdmin(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedApplicationAdmin creates the first APPLICATION_ADMIN from
// SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD when no admin exists yet
func (s *Seeder) seedApplicationAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", domain.RoleApplicationAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if s.seed.AdminEmail == "" || s.seed.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD not set")
		return nil
	}
	if len(s.seed.AdminPassword) < 8 {
		return errors.New("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}

	hashedPassword, err := password.Hash(s.seed.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "Application Admin",
		Email:    strings.ToLower(strings.TrimSpace(s.seed.AdminEmail)),
		Password: hashedPassword,
		Role:     domain.RoleApplicationAdmin,
		Status:   domain.UserStatusApproved,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Application admin created: %s", admin.Email)
	return nil
}
