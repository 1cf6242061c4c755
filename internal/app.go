package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"beaconly/internal/config"
	"beaconly/internal/database"
	"beaconly/internal/events"
	"beaconly/internal/jobs"
	"beaconly/internal/notify"
	"beaconly/internal/pkg/geoip"
	"beaconly/internal/pkg/useragent"
	"beaconly/internal/referrers"
	"beaconly/internal/visitors"
)

// Application holds every long-lived component and their shutdown order.
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	DBManager  *database.DBManager
	Geo        *geoip.Reader
	Dispatcher *notify.Dispatcher
	Scheduler  *jobs.Scheduler
	Router     *fiber.App
}

// NewApplication wires the full system: storage, enrichment collaborators,
// the ingestion pipeline, background jobs, and the HTTP surface.
func NewApplication() (*Application, error) {
	cfg := config.GetConfig()
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	geo, err := geoip.Open(cfg.GeoDBPath, logger)
	if err != nil {
		// Geo enrichment is optional; events carry empty locations without it.
		logger.Warn("Geo database unavailable, events will have no location",
			slog.Any("error", err))
	}

	sender := notify.SlackSender{}
	dispatcher := notify.NewDispatcher(dbManager.GetConnection(), logger, sender, cfg.NotifyQueueSize)

	collector := events.NewCollector(
		dbManager, logger,
		visitors.DeriveKey(cfg.PrivateKey),
		geo, useragent.StdParser{}, referrers.StaticSourceDB{},
		dispatcher,
	)

	scheduler, err := jobs.NewScheduler(dbManager, logger, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	return &Application{
		Config:     cfg,
		Logger:     logger,
		DBManager:  dbManager,
		Geo:        geo,
		Dispatcher: dispatcher,
		Scheduler:  scheduler,
		Router:     NewRouter(dbManager, logger, collector),
	}, nil
}

// Run starts the background components and serves HTTP until shutdown.
func (a *Application) Run() error {
	a.Dispatcher.Start()
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	a.Logger.Info("Starting server",
		slog.String("port", a.Config.AppPort),
		slog.String("environment", a.Config.Environment))
	return a.Router.Listen(":" + a.Config.AppPort)
}

// Shutdown stops the components in reverse dependency order: no new
// requests, then jobs, then the dispatcher drains its queue.
func (a *Application) Shutdown() {
	a.Logger.Info("Shutting down...")

	if err := a.Router.ShutdownWithTimeout(10 * time.Second); err != nil {
		a.Logger.Error("HTTP shutdown failed", slog.Any("error", err))
	}

	a.Scheduler.Stop()
	a.Dispatcher.Stop()

	a.Geo.Close()

	if err := a.DBManager.CheckpointWAL("FULL"); err != nil {
		a.Logger.Warn("Failed to checkpoint WAL on shutdown", slog.Any("error", err))
	}

	a.Logger.Info("Shutdown complete")
}
