package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Dependency is a backing service the readiness probe pings besides the database.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthCheck pings the database and then each dependency, all under one
// two-second budget.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(db *sql.DB, deps ...Dependency) fiber.Handler {
	deps = append([]Dependency{{Name: "postgres", Ping: db.PingContext}}, deps...)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				return writeErrorDetails(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable",
					map[string]any{"dependency": d.Name})
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process serves HTTP.
//
// @Summary  Liveness probe
// @Tags     health
// @Success  200
// @Router   /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
