package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"corntrack/internal/core/calc"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode      string
	Port         string
	Database     DatabaseConfig
	JWT          JWTConfig
	Cookie       CookieConfig
	Deduction    DeductionConfig
	Notification NotificationConfig
	Invitation   InvitationConfig
	Report       ReportConfig
	Seed         SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// DeductionConfig selects the standard deduction policy
type DeductionConfig struct {
	Policy       string
	KgPerBag     float64
	MoistureBase float64
}

// NotificationConfig holds the outbound webhook settings
type NotificationConfig struct {
	WebhookURL   string
	WebhookToken string
}

// InvitationConfig holds invitation lifetime and sweep schedule
type InvitationConfig struct {
	TTLHours      int
	SweepSchedule string
}

// ReportConfig holds settlement report archiving settings
type ReportConfig struct {
	Bucket string
}

// SeedConfig holds the bootstrap application admin
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:      appMode,
		Port:         getEnv("PORT", "3000"),
		Database:     loadDatabaseConfig(appMode),
		JWT:          loadJWTConfig(appMode),
		Cookie:       loadCookieConfig(appMode),
		Deduction:    loadDeductionConfig(),
		Notification: loadNotificationConfig(),
		Invitation:   loadInvitationConfig(),
		Report:       ReportConfig{Bucket: getEnv("REPORT_BUCKET", "")},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	switch config.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'sqlite')", config.Database.Driver)
	}

	if _, err := config.DeductionPolicy(); err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s, DEDUCTION: %s]",
		appMode, config.Database.Driver, config.Deduction.Policy)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "corntrack"),
		SQLitePath: getEnv("SQLITE_PATH", "corntrack.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadDeductionConfig() DeductionConfig {
	return DeductionConfig{
		Policy:       strings.ToLower(strings.TrimSpace(getEnv("DEDUCTION_POLICY", "per_bag"))),
		KgPerBag:     getEnvFloat("DEDUCTION_KG_PER_BAG", 0.5),
		MoistureBase: getEnvFloat("DEDUCTION_MOISTURE_BASE", 14),
	}
}

func loadNotificationConfig() NotificationConfig {
	return NotificationConfig{
		WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		WebhookToken: getEnv("NOTIFY_WEBHOOK_TOKEN", ""),
	}
}

func loadInvitationConfig() InvitationConfig {
	return InvitationConfig{
		TTLHours:      getEnvInt("INVITATION_TTL_HOURS", 168),
		SweepSchedule: getEnv("INVITATION_SWEEP_SCHEDULE", "@daily"),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to the default on missing or malformed values
func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:5173"
	}
	return origins
}

// DeductionPolicy builds the configured standard deduction policy
func (c *Config) DeductionPolicy() (calc.DeductionPolicy, error) {
	return calc.NewPolicy(c.Deduction.Policy, c.Deduction.KgPerBag, c.Deduction.MoistureBase)
}

// InvitationTTL returns how long an invitation stays acceptable
func (c *Config) InvitationTTL() time.Duration {
	return time.Duration(c.Invitation.TTLHours) * time.Hour
}
