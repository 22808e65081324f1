// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewHealthCheck creates a Fiber healthcheck middleware with Kubernetes-style endpoints.
//
// Endpoints:
//   - GET /livez  - Liveness probe (app is running)
//   - GET /readyz - Readiness probe (DB and Redis reachable)
//
// Redis is part of readiness because every serving path reads through
// the cache before touching the database.
//
// This middleware should be registered BEFORE other routes.
func NewHealthCheck(db *gorm.DB, rdb *redis.Client) fiber.Handler {
	return healthcheck.New(healthcheck.Config{
		// Liveness probe - is the application running?
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true // Always return true if the app is running
		},

		// Readiness probe - is the application ready to serve traffic?
		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			if db == nil || rdb == nil {
				return false
			}
			sqlDB, err := db.DB()
			if err != nil || sqlDB.Ping() != nil {
				return false
			}

			return rdb.Ping(c.Context()).Err() == nil
		},
	})
}
