package middleware

import (
	"errors"
	"strings"

	"corntrack/internal/core/domain"
	"corntrack/internal/pkg/jwt"
	"corntrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalIdentity = "identity"
	LocalUserID   = "userID"
	LocalEmail    = "email"
	LocalRole     = "role"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(signer *jwt.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := tokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := signer.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(LocalIdentity, claims.Identity())
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// ApplicationAdminOnly allows only APPLICATION_ADMIN
func ApplicationAdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleApplicationAdmin)
}

// FarmAdminOnly allows only FARM_ADMIN
func FarmAdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleFarmAdmin)
}

// FarmStaff allows FARM_ADMIN and FIELD_MANAGER
func FarmStaff() fiber.Handler {
	return RoleMiddleware(domain.RoleFarmAdmin, domain.RoleFieldManager)
}

// CurrentIdentity returns the authenticated caller
func CurrentIdentity(c *fiber.Ctx) (domain.Identity, bool) {
	id, ok := c.Locals(LocalIdentity).(domain.Identity)
	return id, ok
}

// tokenFrom reads the access token from cookie, then Authorization header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
