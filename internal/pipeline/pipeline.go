/**
 * @description
 * Process wiring shared by the api, worker and sync binaries.
 * Picks the snapshot and history stores, connects Redis and builds the ingestion services.
 *
 * @dependencies
 * - backend/internal/db
 * - backend/internal/store
 * - backend/internal/coingecko
 * - backend/internal/services
 *
 * @notes
 * - Without DATABASE_URL both stores live in memory and are lost on exit.
 */

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/db"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/services"
	"github.com/coinpulse-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Pipeline struct {
	Config   *config.Config
	DB       *gorm.DB // nil when running on memory stores
	Redis    *redis.Client
	Snapshot store.SnapshotStore
	History  store.HistoryStore
	Ingest   *services.IngestService
	Records  *services.RecordService

	closeRedis func()
}

// Build connects the backing services and assembles the pipeline
func Build(cfg *config.Config) (*Pipeline, error) {
	p := &Pipeline{Config: cfg}

	var (
		snapshot store.SnapshotStore
		history  store.HistoryStore
	)
	if cfg.DB.URL != "" {
		pgDB, err := db.ConnectPostgres(cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := db.Migrate(pgDB); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		p.DB = pgDB
		snapshot = store.NewPostgresSnapshotStore(pgDB)
		history = store.NewPostgresHistoryStore(pgDB)
	} else {
		logger.Warn("DATABASE_URL not set, records are kept in memory only")
		snapshot = store.NewMemorySnapshotStore()
		history = store.NewMemoryHistoryStore()
	}

	redisClient, closeRedis, err := db.ConnectRedisOrEmbedded(cfg)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	p.Redis = redisClient
	p.closeRedis = closeRedis

	p.Snapshot = store.NewCachedSnapshotStore(snapshot, redisClient)
	p.History = history

	source := coingecko.NewClient(cfg)
	p.Ingest = services.NewIngestService(source, p.Snapshot, p.History, services.IngestOptions{
		Params:       coingecko.TopByMarketCap(cfg.CoinGecko.VsCurrency, cfg.Ingest.BatchSize),
		BatchSize:    cfg.Ingest.BatchSize,
		CycleTimeout: cfg.Ingest.CycleTimeout,
	})
	p.Records = services.NewRecordService(p.Ingest, cfg.Ingest.SnapshotMaxAge)

	return p, nil
}

// Drain waits for an in-flight cycle to commit, bounded by timeout
func (p *Pipeline) Drain(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := p.Ingest.WaitIdle(ctx); err != nil {
		logger.Warn("Ingest cycle still running at shutdown: %v", err)
	}
}

// Close releases Redis and the database pool
func (p *Pipeline) Close() {
	if p.closeRedis != nil {
		p.closeRedis()
	}
	if p.DB != nil {
		if sqlDB, err := p.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
