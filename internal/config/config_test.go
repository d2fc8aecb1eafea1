package config

import (
	"strings"
	"testing"
	"time"

	"corntrack/internal/adapters/persistence/models"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoad(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEDUCTION_POLICY", "moisture")
	t.Setenv("DEDUCTION_MOISTURE_BASE", "15")
	t.Setenv("INVITATION_TTL_HOURS", "48")
	t.Setenv("ACCESS_TOKEN_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProd() || cfg.Database.Driver != "postgres" || cfg.Database.Port != "5432" || cfg.Database.Host != "db.internal" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.JWT.AccessTokenMins != 15 {
		t.Errorf("access minutes = %d, expected default 15", cfg.JWT.AccessTokenMins)
	}
	if cfg.InvitationTTL() != 48*time.Hour {
		t.Errorf("invitation ttl = %s", cfg.InvitationTTL())
	}

	policy, err := cfg.DeductionPolicy()
	if err != nil {
		t.Fatalf("DeductionPolicy: %v", err)
	}
	if policy.Name() != "moisture" {
		t.Errorf("policy = %s, expected moisture", policy.Name())
	}
	if got := describe(cfg.Database); !strings.HasPrefix(got, "postgres db.internal:5432/") {
		t.Errorf("target = %s", got)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"app mode", map[string]string{"APP_MODE": "staging"}},
		{"driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"deduction policy", map[string]string{"DEDUCTION_POLICY": "flat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMigrationsAndSeeder(t *testing.T) {
	password.UseMinCost()
	db, err := gorm.Open(sqlite.Open("file:config_migrations?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	if err := Migrations(db); err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	// migrations are idempotent
	if err := Migrations(db); err != nil {
		t.Fatalf("second Migrations: %v", err)
	}
	for _, table := range []string{"organizations", "users", "deliveries", "advance_payments", "invitations"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}

	seed := SeedConfig{AdminEmail: " Root@Example.com ", AdminPassword: "bootstrap-pass"}
	for i := 0; i < 2; i++ {
		if err := NewSeeder(db, seed).Run(); err != nil {
			t.Fatalf("seed run %d: %v", i, err)
		}
	}

	var admins []models.User
	if err := db.Where("role = ?", domain.RoleApplicationAdmin).Find(&admins).Error; err != nil {
		t.Fatalf("load admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "root@example.com" || admins[0].Status != domain.UserStatusApproved {
		t.Errorf("admins = %+v", admins)
	}
	if !password.Verify("bootstrap-pass", admins[0].Password) {
		t.Error("seeded password does not verify")
	}
}
