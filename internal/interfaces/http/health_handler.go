package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger comprueba una dependencia externa.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health responde el estado del servicio. Con la base de datos caída responde 503.
func Health(service string, db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		dbStatus := "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				requestLogger(c).Warn().Err(err).Msg("health: base de datos")
				status, code, dbStatus = "degraded", fiber.StatusServiceUnavailable, "down"
			}
		}
		return c.Status(code).JSON(fiber.Map{"status": status, "service": service, "database": dbStatus})
	}
}
