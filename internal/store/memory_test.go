package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coinpulse-project/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, price, mcap float64) models.Record {
	return models.Record{
		EntityID:         id,
		Name:             id,
		Symbol:           id,
		Price:            price,
		MarketCap:        mcap,
		ChangePercent24h: 1,
		LastUpdated:      "2024-05-01T12:00:00.000Z",
	}
}

func coinIDs(rows []models.CurrentRecord) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CoinID)
	}
	return ids
}

func TestMemorySnapshotReplaceDropsPreviousBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySnapshotStore()

	refreshed, err := s.RefreshedAt(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed.IsZero())

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Replace(ctx, []models.Record{rec("btc", 50000, 1e12), rec("eth", 3000, 4e11)}, t1))

	t2 := t1.Add(time.Hour)
	require.NoError(t, s.Replace(ctx, []models.Record{rec("sol", 150, 7e10), rec("btc", 51000, 1.1e12)}, t2))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"btc", "sol"}, coinIDs(rows))
	assert.Equal(t, 51000.0, rows[0].Price)

	refreshed, err = s.RefreshedAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, t2, refreshed)
}

func TestMemorySnapshotListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySnapshotStore()
	require.NoError(t, s.Replace(ctx, []models.Record{rec("btc", 50000, 1e12)}, time.Now()))

	rows, _ := s.List(ctx)
	rows[0].Price = -1

	again, _ := s.List(ctx)
	assert.Equal(t, 50000.0, again[0].Price)
}

func TestMemorySnapshotReadersNeverSeeMixedBatches(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySnapshotStore()

	batchA := []models.Record{rec("a1", 1, 3), rec("a2", 1, 2), rec("a3", 1, 1)}
	batchB := []models.Record{rec("b1", 1, 3), rec("b2", 1, 2), rec("b3", 1, 1)}
	require.NoError(t, s.Replace(ctx, batchA, time.Now()))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_ = s.Replace(ctx, batchB, time.Now())
			} else {
				_ = s.Replace(ctx, batchA, time.Now())
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		rows, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		prefix := rows[0].CoinID[0]
		for _, r := range rows {
			require.Equal(t, prefix, r.CoinID[0], "mixed snapshot: %v", coinIDs(rows))
		}
	}
	close(stop)
	wg.Wait()
}

func TestMemoryHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHistoryStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first := []models.HistoryRecord{
		rec("btc", 50000, 1e12).ToHistory("c1", time.Time{}),
		rec("eth", 3000, 4e11).ToHistory("c1", time.Time{}),
	}
	require.NoError(t, s.Append(ctx, first))
	before, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, fixed, before[0].CollectedAt)

	later := fixed.Add(time.Hour)
	require.NoError(t, s.Append(ctx, []models.HistoryRecord{
		rec("btc", 51000, 1e12).ToHistory("c2", later),
		rec("eth", 3100, 4e11).ToHistory("c2", later),
	}))

	after, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 4)
	assert.Equal(t, before, after[:2])

	ids := map[uint64]bool{}
	for _, e := range after {
		assert.False(t, ids[e.ID], "duplicate id %d", e.ID)
		ids[e.ID] = true
	}
}

func TestMemoryHistoryListByCoinOrdersByCollectionTime(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHistoryStore()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, []models.HistoryRecord{rec("btc", 2, 1).ToHistory("c2", t0.Add(time.Hour))}))
	require.NoError(t, s.Append(ctx, []models.HistoryRecord{rec("btc", 1, 1).ToHistory("c1", t0)}))
	require.NoError(t, s.Append(ctx, []models.HistoryRecord{rec("eth", 9, 1).ToHistory("c1", t0)}))

	rows, err := s.ListByCoin(ctx, "btc")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1.0, rows[0].Price)
	assert.Equal(t, 2.0, rows[1].Price)

	none, err := s.ListByCoin(ctx, "doge")
	require.NoError(t, err)
	assert.Empty(t, none)
}
