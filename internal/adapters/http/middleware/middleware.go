package middleware

import (
	"strings"
	"time"

	"corntrack/internal/config"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	allowMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	allowHeaders = "Origin,Content-Type,Accept,Authorization"
	// settlement workbooks are downloaded by browsers that need the file name
	exposeHeaders = "Content-Disposition"
)

// Setup configures all middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New())

	// xlsx exports are already zip compressed
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/export")
		},
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// 100 requests per minute per IP; /health is not counted
	app.Use(rateLimiter(100, "", "Too many requests, please slow down", func(c *fiber.Ctx) bool {
		return c.Path() == "/health"
	}))

	app.Use(logger.New(loggerConfig(cfg)))
	app.Use(cors.New(corsConfig(cfg)))
}

func loggerConfig(cfg *config.Config) logger.Config {
	if cfg.IsDev() {
		return logger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}
	}
	return logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:userID} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  allowMethods,
		AllowHeaders:  allowHeaders,
		ExposeHeaders: exposeHeaders,
	}
	if cfg.IsDev() {
		// credentials cannot be combined with a wildcard origin
		c.AllowOrigins = "*"
		return c
	}
	c.AllowOrigins = cfg.GetAllowedOrigins()
	c.AllowCredentials = true
	return c
}

// rateLimiter limits requests per IP per minute. bucket separates counters of
// routes that share an IP.
func rateLimiter(max int, bucket, message string, skip func(c *fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Next:       skip,
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + bucket
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// AuthRateLimiter guards login and registration (5 requests per minute per IP)
func AuthRateLimiter() fiber.Handler {
	return rateLimiter(5, "-auth", "Too many login attempts, wait a minute", nil)
}

// StrictRateLimiter guards invitation acceptance (3 requests per minute per IP)
func StrictRateLimiter() fiber.Handler {
	return rateLimiter(3, "-strict", "Rate limit exceeded", nil)
}

// CustomErrorHandler handles errors globally
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	return response.FromError(c, err)
}
