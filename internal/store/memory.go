package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coinpulse-project/backend/internal/models"
)

type snapshot struct {
	records     []models.CurrentRecord
	refreshedAt time.Time
}

// MemorySnapshotStore keeps the snapshot behind an atomic pointer. Replace builds the
// next snapshot off to the side and swaps the reference.
type MemorySnapshotStore struct {
	current atomic.Pointer[snapshot]
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Replace(_ context.Context, records []models.Record, refreshedAt time.Time) error {
	next := &snapshot{
		records:     make([]models.CurrentRecord, 0, len(records)),
		refreshedAt: refreshedAt,
	}
	for _, r := range records {
		next.records = append(next.records, r.ToCurrent(refreshedAt))
	}
	sortByMarketCap(next.records)

	s.current.Store(next)
	return nil
}

func (s *MemorySnapshotStore) List(_ context.Context) ([]models.CurrentRecord, error) {
	snap := s.current.Load()
	if snap == nil {
		return []models.CurrentRecord{}, nil
	}
	out := make([]models.CurrentRecord, len(snap.records))
	copy(out, snap.records)
	return out, nil
}

func (s *MemorySnapshotStore) RefreshedAt(_ context.Context) (time.Time, error) {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}, nil
	}
	return snap.refreshedAt, nil
}

// MemoryHistoryStore is an append-only slice guarded by a RWMutex
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries []models.HistoryRecord
	nextID  uint64
	now     func() time.Time
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{now: time.Now}
}

func (s *MemoryHistoryStore) Append(_ context.Context, entries []models.HistoryRecord) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC()
	for _, e := range entries {
		s.nextID++
		e.ID = s.nextID
		if e.CollectedAt.IsZero() {
			e.CollectedAt = stamp
		}
		s.entries = append(s.entries, e)
	}
	return nil
}

func (s *MemoryHistoryStore) List(_ context.Context) ([]models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HistoryRecord, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryHistoryStore) ListByCoin(_ context.Context, coinID string) ([]models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.HistoryRecord{}
	for _, e := range s.entries {
		if e.CoinID == coinID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CollectedAt.Before(out[j].CollectedAt)
	})
	return out, nil
}

func sortByMarketCap(records []models.CurrentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MarketCap > records[j].MarketCap
	})
}
