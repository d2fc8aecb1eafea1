package handlers

import (
	"strconv"

	"corntrack/internal/adapters/http/middleware"
	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/pagination"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// caller returns the identity set by the auth middleware
func caller(c *fiber.Ctx) (domain.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return domain.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

// paramID parses a numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, domain.Validationf("invalid %s", name)
	}
	return uint(id), nil
}

// queryID parses an optional numeric query parameter
func queryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, domain.Validationf("invalid %s", name)
	}
	v := uint(id)
	return &v, nil
}

// parseBody decodes the JSON body into dst
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.Validationf("invalid request body")
	}
	return nil
}

// paged sends a paginated success response
func paged(c *fiber.Ctx, message string, items interface{}, params *pagination.Params, total int64) error {
	return response.Success(c, message, pagination.NewResponse(items, params, total))
}
