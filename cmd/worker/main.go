/**
 * @description
 * Worker Service Entry Point.
 * Runs the ingestion scheduler without the HTTP server, for deployments where the API
 * replicas set INGEST_SCHEDULER_ENABLED=false and one worker owns history collection.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/pipeline
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/pipeline"
	"github.com/coinpulse-project/backend/internal/services"
)

func main() {
	logger.Info("🔥 Starting CoinPulse Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := logger.Configure(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		logger.Fatal("Failed to configure logger: %v", err)
	}
	if cfg.DB.URL == "" {
		logger.Warn("DATABASE_URL not set, collected history is not shared with the API")
	}

	// 2. Stores and services
	p, err := pipeline.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline: %v", err)
	}
	defer p.Close()

	// 3. Scheduler
	scheduler, err := services.NewScheduler(p.Ingest, cfg.Ingest.Schedule)
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	// 4. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(ctx); err != nil {
		logger.Error("Running cycle cancelled at shutdown: %v", err)
	}

	logger.Info("Worker exited.")
}
