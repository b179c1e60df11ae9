package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": APIVersion,
		})
	}
}

// ReadyHandler pings every configured backing service.
// Unconfigured services are reported but do not fail readiness; the
// engine falls back to synthetic terrain without them.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		components := []struct {
			name string
			p    Pinger
		}{
			{"database", deps.DB},
			{"cache", deps.Cache},
			{"nats", deps.Events},
			{"temporal", deps.Temporal},
		}

		checks := make(map[string]string, len(components))
		allOK := true
		for _, comp := range components {
			if comp.p == nil {
				checks[comp.name] = "not configured"
				continue
			}
			if err := comp.p.Ping(ctx); err != nil {
				checks[comp.name] = "error: " + err.Error()
				allOK = false
				continue
			}
			checks[comp.name] = "ok"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
