/**
 * @description
 * Configuration loader for the CoinPulse backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - DATABASE_URL and REDIS_URL are optional. Without them the process runs on in-memory
 *   stores and an in-process Redis, which is what local development and tests use.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	CoinGecko CoinGeckoConfig
	Ingest    IngestConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port     string
	Env      string // "development", "staging", "production" or "test"
	LogLevel string
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// CoinGeckoConfig holds the market data provider settings
type CoinGeckoConfig struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	RatePerMin int
}

// IngestConfig holds scheduler and pipeline settings
type IngestConfig struct {
	BatchSize        int
	Schedule         string // cron spec, evaluated in UTC
	SchedulerEnabled bool
	SnapshotMaxAge   time.Duration
	CycleTimeout     time.Duration
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "5000"),
			Env:      getEnv("GO_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:    strings.TrimRight(getEnv("COINGECKO_URL", "https://api.coingecko.com/api/v3"), "/"),
			APIKey:     sanitizeCredential(getEnv("COINGECKO_API_KEY", "")),
			VsCurrency: getEnv("COINGECKO_VS_CURRENCY", "usd"),
			RatePerMin: getEnvAsInt("COINGECKO_RATE_PER_MIN", 30),
		},
		Ingest: IngestConfig{
			BatchSize:        getEnvAsInt("INGEST_BATCH_SIZE", 10),
			Schedule:         getEnv("INGEST_SCHEDULE", "0 * * * *"),
			SchedulerEnabled: getEnvAsBool("INGEST_SCHEDULER_ENABLED", true),
			SnapshotMaxAge:   getEnvAsDuration("SNAPSHOT_MAX_AGE", 30*time.Minute),
			CycleTimeout:     getEnvAsDuration("INGEST_CYCLE_TIMEOUT", 30*time.Second),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for values the pipeline cannot run with
func validate(cfg *Config) error {
	if cfg.CoinGecko.BaseURL == "" {
		return fmt.Errorf("COINGECKO_URL is required")
	}
	if cfg.Ingest.BatchSize <= 0 || cfg.Ingest.BatchSize > 250 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be between 1 and 250, got %d", cfg.Ingest.BatchSize)
	}
	if strings.TrimSpace(cfg.Ingest.Schedule) == "" {
		return fmt.Errorf("INGEST_SCHEDULE is required")
	}
	if cfg.Ingest.SnapshotMaxAge <= 0 {
		return fmt.Errorf("SNAPSHOT_MAX_AGE must be positive")
	}
	if cfg.Ingest.CycleTimeout <= 0 {
		return fmt.Errorf("INGEST_CYCLE_TIMEOUT must be positive")
	}
	if cfg.DB.MaxOpenConns <= 0 || cfg.DB.MaxIdleConns < 0 || cfg.DB.MaxIdleConns > cfg.DB.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS (%d)", cfg.DB.MaxOpenConns)
	}
	if cfg.CoinGecko.RatePerMin <= 0 {
		return fmt.Errorf("COINGECKO_RATE_PER_MIN must be positive")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
