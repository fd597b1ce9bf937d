package services

import (
	"errors"
	"fmt"

	"github.com/coinpulse-project/backend/internal/coingecko"
)

var (
	ErrSourceUnavailable = errors.New("market data source unavailable")
	ErrSourceMalformed   = errors.New("market data source returned malformed data")
	ErrValidationFailed  = errors.New("market data failed validation")
	ErrStoreWriteFailed  = errors.New("store write failed")
	ErrRecordNotFound    = errors.New("no history found for coin")

	ErrCycleSkipped              = errors.New("ingestion cycle already in flight")
	ErrManualSnapshotUnsupported = errors.New("manual history snapshots are not supported, history is collected automatically")
)

// classifySourceError maps adapter failures onto the service taxonomy
func classifySourceError(err error) error {
	switch {
	case errors.Is(err, coingecko.ErrMalformed):
		return fmt.Errorf("%w: %w", ErrSourceMalformed, err)
	default:
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
}
