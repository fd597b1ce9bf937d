/**
 * @description
 * Redis connection manager using go-redis.
 * Used for the snapshot cache and the pub/sub channel behind the snapshot stream.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - github.com/alicebob/miniredis/v2: in-process fallback when REDIS_URL is not set
 */

package db

import (
	"context"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes the Redis client
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}

	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 5 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 5 * time.Second
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}
	if opt.PoolTimeout == 0 {
		opt.PoolTimeout = 5 * time.Second
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}
	if opt.MinRetryBackoff == 0 {
		opt.MinRetryBackoff = 200 * time.Millisecond
	}
	if opt.MaxRetryBackoff == 0 {
		opt.MaxRetryBackoff = 2 * time.Second
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = 20
	}
	if opt.MinIdleConns == 0 {
		opt.MinIdleConns = 5
	}

	client := redis.NewClient(opt)

	// Ping to verify connection
	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	logger.Info("✅ Connected to Redis")
	return client, nil
}

// ConnectRedisOrEmbedded connects to REDIS_URL, or starts an in-process miniredis when
// it is empty. The returned cleanup closes the client and the embedded server.
func ConnectRedisOrEmbedded(cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.Redis.URL != "" {
		client, err := ConnectRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger.Warn("REDIS_URL not set, using in-process redis at %s", mr.Addr())

	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
