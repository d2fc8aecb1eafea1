package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NoCacheHeaders marks auth and export responses as never cacheable
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}

// PrivateCacheHeaders lets the caller's browser reuse a successful summary
// for maxAge. Summaries are per organization, so shared caches must not keep them.
func PrivateCacheHeaders(maxAge time.Duration) fiber.Handler {
	value := fmt.Sprintf("private, max-age=%d", int(maxAge.Seconds()))
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, value)
			c.Set(fiber.HeaderVary, fiber.HeaderAuthorization)
		}
		return nil
	}
}
