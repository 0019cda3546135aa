package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusrate/campusrate-api/internal/config"
	"github.com/campusrate/campusrate-api/internal/handler"
	"github.com/campusrate/campusrate-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RatingHandler  *handler.RatingHandler
	TagHandler     *handler.TagHandler
	AuthMiddleware fiber.Handler
	SubmitLimiter  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.TagHandler != nil {
		deps.TagHandler.Register(api.Group("/tags"))
	}

	// Use provided auth middleware, or a no-op if nil. Submissions allow
	// anonymous callers, so the middleware never rejects; it only resolves
	// the authenticated user when a token is present.
	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.RatingHandler != nil {
		ratings := api.Group("/:kind/:id/ratings", authMiddleware)
		deps.RatingHandler.Register(ratings, deps.SubmitLimiter)
	}
}
