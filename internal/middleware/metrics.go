package middleware

import (
	"time"

	"swifttasks-backend/internal/monitoring"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency labelled by the matched route pattern.
func Metrics(m *monitoring.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, c.Response().StatusCode(), time.Since(start))
		return err
	}
}
