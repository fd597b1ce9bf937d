package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsInvalidSpec(t *testing.T) {
	svc, _, _, _ := newTestIngest(&fakeSource{}, 1)

	_, err := NewScheduler(svc, "every hour please")
	require.Error(t, err)
}

func TestSchedulerFiresOnTheHourInUTC(t *testing.T) {
	svc, _, _, _ := newTestIngest(&fakeSource{}, 1)

	s, err := NewScheduler(svc, "0 * * * *")
	require.NoError(t, err)
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 0, next.Second())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(time.Hour+time.Second)))
}

func TestSchedulerTickRunsHistoryCycle(t *testing.T) {
	src := &fakeSource{}
	src.setBatches([]coingecko.CoinMarket{market("btc", 50000, 1e12, 2.5)})
	svc, _, hist, _ := newTestIngest(src, 1)

	s, err := NewScheduler(svc, "0 * * * *")
	require.NoError(t, err)

	s.Tick()
	assert.Equal(t, 1, historyLen(t, hist))

	src.setErr(coingecko.ErrUnavailable)
	s.Tick() // failure is swallowed at the scheduler boundary
	assert.Equal(t, 1, historyLen(t, hist))
	assert.Equal(t, uint64(1), svc.Status().Failed)
}

func TestSchedulerStopCancelsRunningCycleAfterDeadline(t *testing.T) {
	src := &fakeSource{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	svc, _, hist, _ := newTestIngest(src, 1)

	s, err := NewScheduler(svc, "@every 10ms")
	require.NoError(t, err)
	s.Start()

	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled cycle never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = s.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, historyLen(t, hist))
	assert.Equal(t, 1, src.callCount())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSchedulerLogsThroughConfiguredLogger(t *testing.T) {
	prevInfo, prevErr := logger.InfoLogger, logger.ErrorLogger
	defer func() { logger.InfoLogger, logger.ErrorLogger = prevInfo, prevErr }()

	out := &syncBuffer{}
	logger.InfoLogger = logger.New(out)
	logger.ErrorLogger = logger.New(&syncBuffer{})
	require.NoError(t, logger.Configure("production", "info"))

	// a nil source panics inside the job; the recover chain reports it through cron's logger
	svc, _, _, _ := newTestIngest(nil, 1)
	s, err := NewScheduler(svc, "@every 1s")
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "panic")
	}, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.Contains(line, "panic") {
			assert.True(t, strings.HasPrefix(line, "{"), "cron output is not JSON: %s", line)
		}
	}
}
