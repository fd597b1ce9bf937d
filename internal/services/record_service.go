/**
 * @description
 * Read side of the coin data.
 * Serves the snapshot and history stores; the only ingestion it triggers is the
 * on-demand snapshot refresh when the snapshot is missing or stale.
 *
 * @dependencies
 * - backend/internal/store
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/coinpulse-project/backend/internal/models"
	"github.com/coinpulse-project/backend/internal/store"
)

type RecordService struct {
	Snapshot store.SnapshotStore
	History  store.HistoryStore
	Ingest   *IngestService
	MaxAge   time.Duration

	now func() time.Time
}

func NewRecordService(ingest *IngestService, maxAge time.Duration) *RecordService {
	return &RecordService{
		Snapshot: ingest.Snapshot,
		History:  ingest.History,
		Ingest:   ingest,
		MaxAge:   maxAge,
		now:      time.Now,
	}
}

// GetCurrent returns the snapshot, refreshing it first when it is empty or older
// than MaxAge. A refresh failure is returned to the caller.
func (s *RecordService) GetCurrent(ctx context.Context) ([]models.CurrentRecord, error) {
	stale, err := s.isStale(ctx)
	if err != nil {
		return nil, err
	}

	if stale {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}

	return s.Snapshot.List(ctx)
}

// refresh runs a snapshot cycle. When another cycle is in flight it waits for it, and
// if that cycle left the snapshot stale it runs one more cycle of its own.
func (s *RecordService) refresh(ctx context.Context) error {
	_, err := s.Ingest.RunCycle(ctx, CycleSnapshot)
	if !errors.Is(err, ErrCycleSkipped) {
		return err
	}

	logger.Info("Snapshot refresh already in flight, waiting")
	if err := s.Ingest.WaitIdle(ctx); err != nil {
		return err
	}

	stale, err := s.isStale(ctx)
	if err != nil || !stale {
		return err
	}

	_, err = s.Ingest.RunCycle(ctx, CycleSnapshot)
	if errors.Is(err, ErrCycleSkipped) {
		return fmt.Errorf("%w: snapshot still stale after in-flight cycle", ErrSourceUnavailable)
	}
	return err
}

// GetAllHistory returns every history entry. Callers must not rely on ordering.
func (s *RecordService) GetAllHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	return s.History.List(ctx)
}

// GetHistoryFor returns the history of one coin, ErrRecordNotFound when it has none
func (s *RecordService) GetHistoryFor(ctx context.Context, coinID string) ([]models.HistoryRecord, error) {
	entries, err := s.History.ListByCoin(ctx, coinID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrRecordNotFound
	}
	return entries, nil
}

// TriggerManualHistorySnapshot is kept for API compatibility; history is only
// collected by the scheduler.
func (s *RecordService) TriggerManualHistorySnapshot(_ context.Context) error {
	return ErrManualSnapshotUnsupported
}

func (s *RecordService) isStale(ctx context.Context) (bool, error) {
	refreshedAt, err := s.Snapshot.RefreshedAt(ctx)
	if err != nil {
		return false, err
	}
	if refreshedAt.IsZero() {
		return true, nil
	}
	return s.now().Sub(refreshedAt) > s.MaxAge, nil
}
