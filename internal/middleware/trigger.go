package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TriggerAuthMiddleware gates scheduled-job endpoints behind a shared
// secret. An empty secret disables the check so local schedulers can call
// the endpoint unauthenticated.
func TriggerAuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing trigger secret")
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid trigger secret")
		}

		return c.Next()
	}
}
