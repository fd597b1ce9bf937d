/**
 * @description
 * Storage contracts for the coin snapshot and the coin history.
 *
 * - SnapshotStore has replace-all semantics: Replace swaps the full set in one
 *   operation, so readers see either the previous batch or the new one.
 * - HistoryStore is append-only; nothing in this service updates or deletes entries.
 *
 * Implementations: memory (dev/tests), postgres (GORM) and a Redis-cached snapshot
 * wrapper that also publishes change notifications.
 */

package store

import (
	"context"
	"time"

	"github.com/coinpulse-project/backend/internal/models"
)

type SnapshotStore interface {
	// Replace makes records the entire snapshot, stamped with refreshedAt
	Replace(ctx context.Context, records []models.Record, refreshedAt time.Time) error
	// List returns the snapshot ordered by market cap, descending
	List(ctx context.Context) ([]models.CurrentRecord, error)
	// RefreshedAt returns the time of the last Replace, zero if never populated
	RefreshedAt(ctx context.Context) (time.Time, error)
}

type HistoryStore interface {
	// Append adds entries; a zero CollectedAt is stamped with the append time
	Append(ctx context.Context, entries []models.HistoryRecord) error
	List(ctx context.Context) ([]models.HistoryRecord, error)
	// ListByCoin returns the entries for one coin ordered by collection time
	ListByCoin(ctx context.Context, coinID string) ([]models.HistoryRecord, error)
}
