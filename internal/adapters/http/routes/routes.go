package routes

import (
	"time"

	"corntrack/internal/adapters/http/handlers"
	"corntrack/internal/adapters/http/middleware"
	"corntrack/internal/adapters/persistence/repositories"
	"corntrack/internal/config"
	"corntrack/internal/core/services"
	"corntrack/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Services is everything the HTTP layer needs
type Services struct {
	Store       *repositories.Store
	Signer      *jwt.Signer
	Auth        *services.AuthService
	Users       *services.UserService
	Invitations *services.InvitationService
	Farmers     *services.FarmerService
	Lorries     *services.LorryService
	Deliveries  *services.DeliveryService
	Lifecycle   *services.LifecycleService
	Advances    *services.AdvanceService
	Summary     *services.SummaryService
}

type handlerSet struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	users       *handlers.UserHandler
	invitations *handlers.InvitationHandler
	farmers     *handlers.FarmerHandler
	advances    *handlers.AdvanceHandler
	lorries     *handlers.LorryHandler
	deliveries  *handlers.DeliveryHandler
	summary     *handlers.SummaryHandler
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	h := &handlerSet{
		health:      handlers.NewHealthHandler(svc.Store, cfg.AppMode),
		auth:        handlers.NewAuthHandler(svc.Auth, svc.Users, cfg.Cookie),
		users:       handlers.NewUserHandler(svc.Users),
		invitations: handlers.NewInvitationHandler(svc.Invitations),
		farmers:     handlers.NewFarmerHandler(svc.Farmers),
		advances:    handlers.NewAdvanceHandler(svc.Advances),
		lorries:     handlers.NewLorryHandler(svc.Lorries, svc.Lifecycle),
		deliveries:  handlers.NewDeliveryHandler(svc.Deliveries, svc.Lifecycle),
		summary:     handlers.NewSummaryHandler(svc.Summary),
	}
	auth := middleware.AuthMiddleware(svc.Signer)

	// Health check & root routes
	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", h.health.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), h.auth, auth)
	setupInvitationRoutes(apiV1.Group("/invitations"), h.invitations, auth)

	admin := apiV1.Group("/admin", auth, middleware.ApplicationAdminOnly())
	setupAdminRoutes(admin, h.users)

	users := apiV1.Group("/users", auth)
	users.Get("/", h.users.ListUsers)

	// Farm staff routes; services enforce the per-action role and organization
	staff := middleware.FarmStaff()
	setupFarmerRoutes(apiV1.Group("/farmers", auth, staff), h.farmers, h.advances)
	setupAdvanceRoutes(apiV1.Group("/advances", auth, staff), h.advances)
	setupLorryRoutes(apiV1.Group("/lorries", auth, staff), h.lorries, h.summary)
	setupDeliveryRoutes(apiV1.Group("/deliveries", auth, staff), h.deliveries)
	apiV1.Get("/summary", auth, staff, middleware.PrivateCacheHeaders(30*time.Second), h.summary.Organization)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	router.Use(middleware.NoCacheHeaders())

	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
	router.Put("/password", auth, handler.ChangePassword)
}

// setupInvitationRoutes configures invitation routes; accept is public
func setupInvitationRoutes(router fiber.Router, handler *handlers.InvitationHandler, auth fiber.Handler) {
	router.Post("/accept", middleware.StrictRateLimiter(), handler.Accept)

	router.Post("/", auth, middleware.FarmAdminOnly(), handler.Invite)
	router.Get("/", auth, middleware.FarmAdminOnly(), handler.List)
	router.Delete("/:id", auth, middleware.FarmAdminOnly(), handler.Revoke)
}

// setupAdminRoutes configures application admin routes
func setupAdminRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/users/pending", handler.ListPending)
	router.Post("/users/:id/approve", handler.Approve)
	router.Post("/users/:id/reject", handler.Reject)
	router.Get("/organizations", handler.ListOrganizations)
}

// setupFarmerRoutes configures farmer registry routes
func setupFarmerRoutes(router fiber.Router, handler *handlers.FarmerHandler, advances *handlers.AdvanceHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Deactivate)

	router.Post("/:id/advances", advances.Create)
	router.Get("/:id/advances", advances.List)
	router.Get("/:id/advances/balance", advances.Balance)
}

// setupAdvanceRoutes configures advance payment routes
func setupAdvanceRoutes(router fiber.Router, handler *handlers.AdvanceHandler) {
	router.Post("/:id/complete", handler.Complete)
	router.Post("/:id/cancel", handler.Cancel)
}

// setupLorryRoutes configures fleet and lorry lifecycle routes
func setupLorryRoutes(router fiber.Router, handler *handlers.LorryHandler, summary *handlers.SummaryHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)

	router.Post("/:id/assign", handler.Assign)
	router.Post("/:id/unassign", handler.Unassign)
	router.Post("/:id/maintenance", handler.Maintenance)
	router.Post("/:id/restore", handler.Restore)
	router.Post("/:id/submit", handler.Submit)
	router.Post("/:id/send-to-dealer", handler.SendToDealer)

	router.Get("/:id/summary", middleware.PrivateCacheHeaders(30*time.Second), summary.Lorry)
	router.Get("/:id/export", middleware.NoCacheHeaders(), summary.Export)
}

// setupDeliveryRoutes configures delivery routes
func setupDeliveryRoutes(router fiber.Router, handler *handlers.DeliveryHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Post("/:id/bags", handler.AddBag)
	router.Put("/:id/quality-deduction", handler.SetQualityDeduction)
	router.Put("/:id/pricing", handler.SetPricing)
}
