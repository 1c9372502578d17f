package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bukufunnel/internal/config"
	"github.com/example/bukufunnel/internal/utils"
)

const adminContextKey = "currentAdminEmail"

// AuthMiddleware validates JWT tokens and loads the authenticated admin
// email into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		email, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, email)
		return c.Next()
	}
}

// GetCurrentAdmin extracts the authenticated admin email from context.
func GetCurrentAdmin(c *fiber.Ctx) (string, bool) {
	value := c.Locals(adminContextKey)
	if value == nil {
		return "", false
	}

	if email, ok := value.(string); ok && email != "" {
		return email, true
	}

	return "", false
}
