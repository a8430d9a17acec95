package bootstrap

import (
	"digipay-backend/internal/app"
	"digipay-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosting. The api handler imports
// this package rather than internal packages directly.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fiberApp, _, _, err := app.CreateApp(cfg)
	return fiberApp, err
}
