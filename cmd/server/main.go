package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corntrack/internal/adapters/export"
	"corntrack/internal/adapters/http/middleware"
	"corntrack/internal/adapters/http/routes"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/adapters/storage"
	"corntrack/internal/config"
	"corntrack/internal/core/calc"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"

	_ "corntrack/docs" // Swagger docs
)

// @title CornTrack API
// @version 1.0
// @description Corn procurement tracking: farmers, lorries, deliveries and settlement

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := config.Migrations(db); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg.Seed).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed: %v", err)
	}

	policy, err := cfg.DeductionPolicy()
	if err != nil {
		log.Fatalf("❌ Invalid deduction policy: %v", err)
	}
	calculator := calc.NewCalculator(policy)
	log.Printf("⚖️ Standard deduction policy: %s", policy.Name())

	var sender services.Sender = services.LogSender{}
	if cfg.Notification.WebhookURL != "" {
		sender = services.NewWebhookSender(cfg.Notification.WebhookURL, cfg.Notification.WebhookToken)
	}
	notifier := services.NewNotificationService(sender)

	var archiver services.ReportArchiver
	if cfg.Report.Bucket != "" {
		gcs, err := storage.NewGCSArchiver(context.Background(), cfg.Report.Bucket)
		if err != nil {
			log.Printf("⚠️ Settlement archiving disabled: %v", err)
		} else {
			defer gcs.Close()
			archiver = gcs
		}
	}

	store := repositories.NewStore(db)
	signer := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTokenMins, cfg.JWT.RefreshTokenDays)

	authService := services.NewAuthService(store, signer, notifier)
	invitationService := services.NewInvitationService(store, notifier, cfg.InvitationTTL())
	summaryService := services.NewSummaryService(store, export.NewWorkbookRenderer(), archiver)

	svc := &routes.Services{
		Store:       store,
		Signer:      signer,
		Auth:        authService,
		Users:       services.NewUserService(store, notifier),
		Invitations: invitationService,
		Farmers:     services.NewFarmerService(store),
		Lorries:     services.NewLorryService(store),
		Deliveries:  services.NewDeliveryService(store, calculator),
		Lifecycle:   services.NewLifecycleService(store, calculator, notifier, summaryService),
		Advances:    services.NewAdvanceService(store),
		Summary:     summaryService,
	}

	cronService := services.NewCronService(invitationService, authService, cfg.Invitation.SweepSchedule)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "CornTrack API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, svc, cfg)

	go gracefulShutdown(app)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
