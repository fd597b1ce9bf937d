package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/models"
	"github.com/coinpulse-project/backend/internal/store"
)

func market(id string, price, marketCap, change float64) coingecko.CoinMarket {
	return coingecko.CoinMarket{
		ID:                       id,
		Name:                     id + "-name",
		Symbol:                   id,
		CurrentPrice:             &price,
		MarketCap:                &marketCap,
		PriceChangePercentage24h: &change,
		LastUpdated:              "2024-05-01T12:00:00.000Z",
	}
}

// fakeSource serves queued batches; the last one repeats once the queue is drained
type fakeSource struct {
	mu      sync.Mutex
	batches [][]coingecko.CoinMarket
	err     error
	calls   int

	// when gate is set GetMarkets signals started and waits for gate to close
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeSource) GetMarkets(ctx context.Context, _ coingecko.MarketsParams) ([]coingecko.CoinMarket, error) {
	f.mu.Lock()
	f.calls++
	gate, started := f.gate, f.started
	err := f.err
	var batch []coingecko.CoinMarket
	if len(f.batches) > 0 {
		batch = f.batches[0]
		if len(f.batches) > 1 {
			f.batches = f.batches[1:]
		}
	}
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (f *fakeSource) setBatches(batches ...[]coingecko.CoinMarket) {
	f.mu.Lock()
	f.batches = batches
	f.mu.Unlock()
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingHistory struct {
	store.HistoryStore
}

func (failingHistory) Append(context.Context, []models.HistoryRecord) error {
	return errors.New("history table unavailable")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestIngest(src MarketSource, batchSize int) (*IngestService, *store.MemorySnapshotStore, *store.MemoryHistoryStore, *clock) {
	snap := store.NewMemorySnapshotStore()
	hist := store.NewMemoryHistoryStore()
	svc := NewIngestService(src, snap, hist, IngestOptions{
		Params:       coingecko.TopByMarketCap("usd", batchSize),
		BatchSize:    batchSize,
		CycleTimeout: 5 * time.Second,
	})

	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clk.Now
	return svc, snap, hist, clk
}

func historyLen(t *testing.T, hist store.HistoryStore) int {
	t.Helper()
	entries, err := hist.List(context.Background())
	if err != nil {
		t.Fatalf("failed to list history: %v", err)
	}
	return len(entries)
}
