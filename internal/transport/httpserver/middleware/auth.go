package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"content-sync-service/internal/transport/httpserver/dto"
)

// RequireToken returns a middleware that guards admin routes with a
// static bearer token. The token is read from the Authorization header
// ("Bearer <token>") or, as a fallback, from X-Admin-Token.
//
// An empty configured token disables the guard. That is only
// acceptable for local development; production deploys must set one.
func RequireToken(token string, logger *zap.Logger) fiber.Handler {
	if token == "" {
		logger.Warn("admin token is empty, admin routes are unprotected")

		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		presented := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if presented == "" {
			presented = c.Get("X-Admin-Token")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			logger.Warn("admin request rejected",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()))

			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "invalid or missing admin token",
				Code:  "UNAUTHORIZED",
			})
		}

		return c.Next()
	}
}
