/**
 * @description
 * Ingestion pipeline.
 * Runs one fetch -> normalize -> commit cycle at a time against CoinGecko and writes the
 * result to the snapshot store (replace) and, for scheduled cycles, the history store
 * (append).
 *
 * @dependencies
 * - backend/internal/coingecko
 * - backend/internal/store
 * - golang.org/x/sync/semaphore: single-flight guard, TryAcquire never queues
 * - github.com/google/uuid: cycle ids
 *
 * @notes
 * - A cycle that finds another one in flight returns ErrCycleSkipped immediately.
 * - Fetch or normalize failures leave both stores untouched. Commit writes are
 *   independent; one failing does not roll back the other.
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/models"
	"github.com/coinpulse-project/backend/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// MarketSource is the upstream the pipeline samples
type MarketSource interface {
	GetMarkets(ctx context.Context, params coingecko.MarketsParams) ([]coingecko.CoinMarket, error)
}

// CycleMode selects which stores a cycle commits to
type CycleMode string

const (
	// CycleHistory replaces the snapshot and appends to history (scheduled ticks)
	CycleHistory CycleMode = "history"
	// CycleSnapshot only replaces the snapshot (on-demand refresh from reads)
	CycleSnapshot CycleMode = "snapshot"
)

type CycleState string

const (
	StateIdle       CycleState = "idle"
	StateFetching   CycleState = "fetching"
	StateCommitting CycleState = "committing"
	// StateFailed is idle after a failed cycle; nothing is retried until the next trigger
	StateFailed CycleState = "failed"
)

// CycleResult describes a cycle that ran to commit
type CycleResult struct {
	ID          string        `json:"id"`
	Mode        CycleMode     `json:"mode"`
	CollectedAt time.Time     `json:"collectedAt"`
	Records     int           `json:"records"`
	Duration    time.Duration `json:"duration"`
}

// IngestStatus is a point-in-time view of the pipeline
type IngestStatus struct {
	State         CycleState   `json:"state"`
	LastCycle     *CycleResult `json:"lastCycle,omitempty"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
	LastErrorAt   *time.Time   `json:"lastErrorAt,omitempty"`
	Succeeded     uint64       `json:"succeeded"`
	Failed        uint64       `json:"failed"`
	Skipped       uint64       `json:"skipped"`
}

type IngestOptions struct {
	Params       coingecko.MarketsParams
	BatchSize    int
	CycleTimeout time.Duration
}

type IngestService struct {
	Source   MarketSource
	Snapshot store.SnapshotStore
	History  store.HistoryStore
	Options  IngestOptions

	sem   *semaphore.Weighted
	now   func() time.Time
	newID func() string

	mu     sync.RWMutex
	status IngestStatus
}

func NewIngestService(source MarketSource, snapshot store.SnapshotStore, history store.HistoryStore, opts IngestOptions) *IngestService {
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 30 * time.Second
	}
	if opts.Params.PerPage == 0 && opts.BatchSize > 0 {
		opts.Params.PerPage = opts.BatchSize
	}

	return &IngestService{
		Source:   source,
		Snapshot: snapshot,
		History:  history,
		Options:  opts,
		sem:      semaphore.NewWeighted(1),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		status:   IngestStatus{State: StateIdle},
	}
}

// RunCycle executes one ingestion cycle unless another one is in flight
func (s *IngestService) RunCycle(ctx context.Context, mode CycleMode) (*CycleResult, error) {
	if !s.sem.TryAcquire(1) {
		ingestCycles.WithLabelValues(string(mode), "skipped").Inc()
		s.mu.Lock()
		s.status.Skipped++
		s.mu.Unlock()
		return nil, ErrCycleSkipped
	}
	defer s.sem.Release(1)

	return s.run(ctx, mode)
}

// WaitIdle blocks until no cycle is in flight or ctx is done
func (s *IngestService) WaitIdle(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	s.sem.Release(1)
	return nil
}

// Status returns a copy of the pipeline status
func (s *IngestService) Status() IngestStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.status
	if s.status.LastCycle != nil {
		last := *s.status.LastCycle
		out.LastCycle = &last
	}
	return out
}

func (s *IngestService) run(ctx context.Context, mode CycleMode) (*CycleResult, error) {
	cycleID := s.newID()
	startedAt := s.now().UTC()

	ctx, cancel := context.WithTimeout(ctx, s.Options.CycleTimeout)
	defer cancel()

	logger.Info("📡 [%s] %s cycle: fetching top %d coins", shortID(cycleID), mode, s.Options.Params.PerPage)
	s.setState(StateFetching)

	markets, err := s.Source.GetMarkets(ctx, s.Options.Params)
	if err != nil {
		return nil, s.fail(cycleID, mode, classifySourceError(err))
	}

	batch, err := NormalizeBatch(markets, s.Options.BatchSize)
	if err != nil {
		return nil, s.fail(cycleID, mode, err)
	}

	s.setState(StateCommitting)
	if err := s.commit(ctx, mode, batch, startedAt, cycleID); err != nil {
		return nil, s.fail(cycleID, mode, err)
	}

	result := &CycleResult{
		ID:          cycleID,
		Mode:        mode,
		CollectedAt: startedAt,
		Records:     len(batch),
		Duration:    s.now().Sub(startedAt),
	}
	s.succeed(result)

	logger.With(map[string]interface{}{
		"cycle":    cycleID,
		"mode":     string(mode),
		"records":  len(batch),
		"duration": result.Duration.String(),
	}).Infof("✅ [%s] %s cycle: committed", shortID(cycleID), mode)
	return result, nil
}

// commit performs the snapshot replace and, for history cycles, the history append.
// Both writes are attempted; failures are joined.
func (s *IngestService) commit(ctx context.Context, mode CycleMode, batch []models.Record, collectedAt time.Time, cycleID string) error {
	var errs []error

	if err := s.Snapshot.Replace(ctx, batch, collectedAt); err != nil {
		errs = append(errs, fmt.Errorf("%w: snapshot replace: %w", ErrStoreWriteFailed, err))
	} else {
		ingestRecords.WithLabelValues("snapshot").Add(float64(len(batch)))
	}

	if mode == CycleHistory {
		entries := make([]models.HistoryRecord, 0, len(batch))
		for _, r := range batch {
			entries = append(entries, r.ToHistory(cycleID, collectedAt))
		}
		if err := s.History.Append(ctx, entries); err != nil {
			errs = append(errs, fmt.Errorf("%w: history append: %w", ErrStoreWriteFailed, err))
		} else {
			ingestRecords.WithLabelValues("history").Add(float64(len(entries)))
		}
	}

	return errors.Join(errs...)
}

func (s *IngestService) setState(state CycleState) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

func (s *IngestService) fail(cycleID string, mode CycleMode, err error) error {
	now := s.now().UTC()

	s.mu.Lock()
	s.status.State = StateFailed
	s.status.LastError = err.Error()
	s.status.LastErrorAt = &now
	s.status.Failed++
	s.mu.Unlock()

	ingestCycles.WithLabelValues(string(mode), "failed").Inc()
	logger.Error("❌ [%s] %s cycle failed: %v", shortID(cycleID), mode, err)
	return err
}

func (s *IngestService) succeed(result *CycleResult) {
	at := result.CollectedAt

	s.mu.Lock()
	s.status.State = StateIdle
	s.status.LastCycle = result
	s.status.LastSuccessAt = &at
	s.status.Succeeded++
	s.mu.Unlock()

	ingestCycles.WithLabelValues(string(result.Mode), "success").Inc()
	ingestDuration.WithLabelValues(string(result.Mode)).Observe(result.Duration.Seconds())
	ingestLastSuccess.Set(float64(at.Unix()))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
