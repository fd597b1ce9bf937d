/**
 * @description
 * PostgreSQL access for the snapshot and history tables.
 * Opens the GORM handle, sizes the pool for the pipeline's write pattern and migrates
 * the record tables.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 *
 * @notes
 * - Writes come from one cycle at a time and reads from the API, so the pool stays small.
 *   DB_MAX_OPEN_CONNS / DB_MAX_IDLE_CONNS / DB_CONN_MAX_LIFETIME override it.
 */

package db

import (
	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectPostgres opens the record database and applies the pool limits
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DB.URL,
		// pgbouncer in transaction mode cannot keep prepared statements
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(sqlLogLevel(cfg.Server.Env)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	logger.Info("✅ Connected to PostgreSQL (pool %d/%d)", cfg.DB.MaxIdleConns, cfg.DB.MaxOpenConns)
	return db, nil
}

// sqlLogLevel echoes every statement in development only
func sqlLogLevel(env string) gormLogger.LogLevel {
	switch env {
	case "development":
		return gormLogger.Info
	case "staging":
		return gormLogger.Warn
	case "test":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}

// Migrate creates or updates the record tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	logger.Info("✅ Record tables migrated")
	return nil
}
