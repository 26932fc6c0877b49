// Package backend assembles the Fiber application serving the kiosk's
// public claim surface and the organiser admin API.
package backend

import (
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/backend/handlers"
	"github.com/dropkiosk/dropkiosk/backend/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the HTTP application around an already wired WebApp.
func NewApp(webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "DropKiosk API",
		ServerHeader: "DropKiosk",
	})

	web := webApp.Config.Web

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Admin-Token",
	}))
	app.Use(middleware.LoggingMiddleware(web.TrustProxyChain))
	app.Use(middleware.RateLimit(
		web.RateLimit,
		time.Duration(web.RateWindowSec)*time.Second,
		web.TrustProxyChain,
	))

	setupRoutes(app, webApp)

	return app
}

func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	// Public claim chain
	app.Get("/claim/:dropID/:token", handlers.ClaimRedirect(webApp))

	api := app.Group("/api")
	api.Post("/challenge/:token/code", handlers.CodeByChallenge(webApp))
	api.Post("/codes/:code/claim", handlers.CodeClaim(webApp))

	// Verification-service webhook
	api.Post("/proofs", handlers.ProofsCreate(webApp))

	// Organiser admin surface
	drops := api.Group("/drops")
	drops.Post("/", handlers.DropsCreate(webApp))
	drops.Get("/search", handlers.DropsSearch(webApp))
	drops.Get("/emails", handlers.DropsEmails(webApp))
	drops.Delete("/:id", handlers.DropsDelete(webApp))
	drops.Post("/:id/refresh", handlers.DropsRefresh(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested endpoint does not exist",
		})
	})
}
