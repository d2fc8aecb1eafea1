package config

import (
	"log"

	"corntrack/internal/adapters/persistence/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrations applies every pending schema migration
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260901_create_tenancy_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Organization{}, &models.User{}, &models.RefreshToken{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("refresh_tokens", "users", "organizations")
			},
		},
		{
			ID: "20260901_create_procurement_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Farmer{}, &models.Lorry{}, &models.Delivery{}, &models.AdvancePayment{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("advance_payments", "deliveries", "lorries", "farmers")
			},
		},
		{
			ID: "20260915_create_invitations",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Invitation{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("invitations")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}

	log.Println("✅ Database migrations applied")
	return nil
}
