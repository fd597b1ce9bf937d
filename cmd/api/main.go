/**
 * @description
 * Main entry point for the CoinPulse Backend API.
 * Loads configuration, builds the ingestion pipeline, starts the hourly scheduler and serves
 * the record endpoints.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/coinpulse-project/backend/internal/config: Config loader
 * - github.com/coinpulse-project/backend/internal/pipeline: Stores and services
 *
 * @notes
 * - The scheduler runs in this process unless INGEST_SCHEDULER_ENABLED=false, which is the
 *   setup when cmd/worker owns collection.
 * - On SIGINT/SIGTERM the server stops accepting requests, then an in-flight cycle is given
 *   time to commit before the stores are closed.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinpulse-project/backend/internal/api"
	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/pipeline"
	"github.com/coinpulse-project/backend/internal/services"
	"github.com/coinpulse-project/backend/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := logger.Configure(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		logger.Fatal("Failed to configure logger: %v", err)
	}

	// 2. Stores, Redis and services
	p, err := pipeline.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := services.NewRecordStreamHub(p.Redis, store.SnapshotUpdateChannel)
	go hub.Run(ctx)

	// 3. Scheduler
	var scheduler *services.Scheduler
	if cfg.Ingest.SchedulerEnabled {
		scheduler, err = services.NewScheduler(p.Ingest, cfg.Ingest.Schedule)
		if err != nil {
			logger.Fatal("Failed to create scheduler: %v", err)
		}
		scheduler.Start()
	} else {
		logger.Info("Scheduler disabled, history is collected by another process")
	}

	// 4. HTTP
	app := api.NewApp(cfg.Server.Env != "test")
	api.SetupRoutes(app, api.Deps{
		Records:   p.Records,
		Ingest:    p.Ingest,
		Scheduler: scheduler,
		Hub:       hub,
	})

	go func() {
		logger.Info("🚀 Starting CoinPulse Backend on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// closing the hub ends open SSE streams so the server can drain
	cancel()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Server shutdown: %v", err)
	}

	if scheduler != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Error("Scheduler stopped before the running cycle finished: %v", err)
		}
		stop()
	}
	p.Drain(shutdownTimeout)

	logger.Info("Server exited.")
}
