package bootstrap

import (
	"swifttasks-backend/internal/config"
	"swifttasks-backend/internal/interfaces/router"
	"swifttasks-backend/internal/monitoring"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
// The maintenance scheduler is not started here; serverless instances do not live long enough.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	m, err := monitoring.New()
	if err != nil {
		return nil, err
	}
	app, _, _, err := router.CreateApp(cfg, m)
	return app, err
}
