/**
 * @description
 * Redis cache in front of a SnapshotStore.
 * The whole snapshot is written as one JSON value with a single SET, so a cache
 * reader sees either the previous batch or the new one. Every replace is also
 * published on the snapshot update channel for the SSE stream.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeySnapshot      = "records:current"
	SnapshotUpdateChannel = "records:updates"
	CacheTTL              = 2 * time.Hour
)

// SnapshotEvent is the cached value and the pub/sub payload
type SnapshotEvent struct {
	RefreshedAt time.Time              `json:"refreshedAt"`
	Records     []models.CurrentRecord `json:"records"`
}

type CachedSnapshotStore struct {
	Primary SnapshotStore
	Redis   *redis.Client
}

func NewCachedSnapshotStore(primary SnapshotStore, rdb *redis.Client) *CachedSnapshotStore {
	return &CachedSnapshotStore{Primary: primary, Redis: rdb}
}

func (s *CachedSnapshotStore) Replace(ctx context.Context, records []models.Record, refreshedAt time.Time) error {
	if err := s.Primary.Replace(ctx, records, refreshedAt); err != nil {
		return err
	}

	event := SnapshotEvent{
		RefreshedAt: refreshedAt,
		Records:     make([]models.CurrentRecord, 0, len(records)),
	}
	for _, r := range records {
		event.Records = append(event.Records, r.ToCurrent(refreshedAt))
	}
	sortByMarketCap(event.Records)

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal snapshot for cache: %v", err)
		s.invalidate(ctx)
		return nil
	}

	_, err = s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, CacheKeySnapshot, data, CacheTTL)
		pipe.Publish(ctx, SnapshotUpdateChannel, data)
		return nil
	})
	if err != nil {
		// A stale cache would hide the new batch; drop it and let reads hit the primary
		logger.Error("Failed to update snapshot cache: %v", err)
		s.invalidate(ctx)
	}

	return nil
}

func (s *CachedSnapshotStore) List(ctx context.Context) ([]models.CurrentRecord, error) {
	if event, ok := s.cached(ctx); ok {
		return event.Records, nil
	}
	return s.Primary.List(ctx)
}

func (s *CachedSnapshotStore) RefreshedAt(ctx context.Context) (time.Time, error) {
	if event, ok := s.cached(ctx); ok {
		return event.RefreshedAt, nil
	}
	return s.Primary.RefreshedAt(ctx)
}

func (s *CachedSnapshotStore) cached(ctx context.Context) (*SnapshotEvent, bool) {
	val, err := s.Redis.Get(ctx, CacheKeySnapshot).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Snapshot cache read failed, using primary store: %v", err)
		}
		return nil, false
	}

	var event SnapshotEvent
	if err := json.Unmarshal(val, &event); err != nil {
		return nil, false
	}
	if event.Records == nil {
		event.Records = []models.CurrentRecord{}
	}
	return &event, true
}

func (s *CachedSnapshotStore) invalidate(ctx context.Context) {
	if err := s.Redis.Del(ctx, CacheKeySnapshot).Err(); err != nil {
		logger.Error("Failed to invalidate snapshot cache: %v", err)
	}
}
