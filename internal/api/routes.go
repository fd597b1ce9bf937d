/**
 * @description
 * API Route definitions.
 * Sets up the Fiber app, its middleware and the route groups.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/prometheus/client_golang: /metrics exposition via the fiber adaptor
 * - backend/internal/api/handlers
 * - backend/internal/services
 */

package api

import (
	"github.com/coinpulse-project/backend/internal/api/handlers"
	"github.com/coinpulse-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the long-lived services the routes are bound to
type Deps struct {
	Records   *services.RecordService
	Ingest    *services.IngestService
	Scheduler *services.Scheduler // optional
	Hub       *services.RecordStreamHub
}

// NewApp creates the Fiber app with global middleware
func NewApp(requestLogging bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "CoinPulse API",
		StrictRouting: true,
		CaseSensitive: true,
	})

	app.Use(recover.New())
	if requestLogging {
		app.Use(fiberLogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	recordHandler := handlers.NewRecordHandler(deps.Records, deps.Hub)
	historyHandler := handlers.NewHistoryHandler(deps.Records)
	statusHandler := handlers.NewStatusHandler(deps.Ingest, deps.Scheduler, deps.Hub)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Crypto Tracker API Running")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	api.Get("/status", statusHandler.GetStatus)

	// Current snapshot; /coins is kept for the dashboard
	api.Get("/records", recordHandler.GetCurrent)
	api.Get("/coins", recordHandler.GetCurrent)
	if deps.Hub != nil {
		api.Get("/records/stream", recordHandler.StreamUpdates)
	}

	api.Get("/history", historyHandler.GetAll)
	api.Post("/history", historyHandler.Create)
	api.Get("/history/:coinId", historyHandler.GetForCoin)
}
