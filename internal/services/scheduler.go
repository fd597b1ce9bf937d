package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler drives history cycles on a cron spec evaluated in UTC.
// The default "0 * * * *" fires at the top of every hour.
type Scheduler struct {
	ingest *IngestService
	cron   *cron.Cron
	spec   string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(ingest *IngestService, spec string) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger.InfoLogger)

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		ingest: ingest,
		cron:   c,
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := c.AddFunc(spec, s.Tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid ingest schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start runs the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("🕒 Ingestion scheduled with %q (UTC), next run at %s", s.spec, s.Next().Format(time.RFC3339))
}

// Tick runs one history cycle; errors stop here and are only logged
func (s *Scheduler) Tick() {
	_, err := s.ingest.RunCycle(s.ctx, CycleHistory)
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleSkipped):
		logger.Warn("Scheduled cycle skipped: previous cycle still running")
	default:
		// already logged by the ingest service
	}
}

// Next returns the next scheduled run, zero when none is scheduled
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops scheduling and waits for a running cycle until ctx is done, after which
// the running cycle is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return ctx.Err()
	}
}
