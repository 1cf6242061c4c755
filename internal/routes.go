// Package internal wires the application: routes, collaborators and
// lifecycle.
package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "beaconly/api/v1"
	"beaconly/internal/config"
	"beaconly/internal/events"
	beaconlyhttp "beaconly/internal/http"
)

// publicCORSConfig is the permissive CORS setup for the ingestion endpoints:
// every tracked page is by definition a foreign origin.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
}

// NewRouter builds the fiber app with every route mounted.
func NewRouter(dbManager cartridge.DBManager, logger *slog.Logger, collector *events.Collector) *fiber.App {
	cfg := config.GetConfig()
	db := dbManager.GetConnection()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: jsonErrorHandler,
	})

	ingest := v1.NewHandler(collector, logger)
	stats := beaconlyhttp.NewStatsHandler(db, logger, time.Duration(cfg.LiveWindowMinutes)*time.Minute)
	domains := beaconlyhttp.NewDomainsHandler(db, logger)
	health := beaconlyhttp.NewHealthHandler(db, logger)

	app.Get("/_health", health.Index)
	app.Head("/_health", health.Index)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public ingestion API
	public := app.Group("/api/v1", cors.New(publicCORSConfig))
	public.Post("/events", ingest.CreateEvent)
	public.Post("/events/beacon", ingest.CreateEventBeacon)

	// Query API; authentication happens upstream, the requester arrives as
	// the X-Account-ID header.
	app.Get("/api/v1/domains", domains.List)
	app.Post("/api/v1/domains/:domain/share/enable", domains.EnableShare)
	app.Post("/api/v1/domains/:domain/share/disable", domains.DisableShare)
	app.Get("/api/v1/domains/:domain/stats", stats.Overview)
	app.Get("/api/v1/domains/:domain/series", stats.Series)
	app.Get("/api/v1/domains/:domain/top/:facet", stats.Top)
	app.Get("/api/v1/domains/:domain/goals", stats.Goals)

	return app
}

// jsonErrorHandler renders fiber errors as the JSON envelope the rest of
// the API uses.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := "Internal server error"

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
