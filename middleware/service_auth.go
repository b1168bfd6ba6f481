package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthMiddleware guards operator/admin routes with a shared service
// token. Player-facing routes stay public; only the admin group mounts this.
func ServiceAuthMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("X-Service-Token")
		if authHeader == "" {
			log.Printf("🚫 [SERVICE_AUTH] Missing X-Service-Token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service authentication token missing",
			})
		}

		token := strings.TrimSpace(authHeader)
		if token != expectedToken {
			log.Printf("❌ [SERVICE_AUTH] Invalid token for %s (got prefix: %.10s...)", c.Path(), token)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service authentication token",
			})
		}

		return c.Next()
	}
}
