/**
 * @description
 * PostgreSQL-backed snapshot and history stores.
 * Snapshot replace runs DELETE + INSERT inside one transaction that holds an EXCLUSIVE
 * table lock, so concurrent SELECTs keep reading the previous batch until commit and
 * concurrent writers serialize instead of colliding on primary keys.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: error codes for deadlock/serialization retries
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/coinpulse-project/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	insertBatchSize = 100
	maxWriteRetries = 5
)

type PostgresSnapshotStore struct {
	DB *gorm.DB
}

func NewPostgresSnapshotStore(db *gorm.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{DB: db}
}

func (s *PostgresSnapshotStore) Replace(ctx context.Context, records []models.Record, refreshedAt time.Time) error {
	rows := make([]models.CurrentRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.ToCurrent(refreshedAt))
	}

	return withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("LOCK TABLE current_records IN EXCLUSIVE MODE").Error; err != nil {
				return err
			}
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CurrentRecord{}).Error; err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			return tx.CreateInBatches(rows, insertBatchSize).Error
		})
	})
}

func (s *PostgresSnapshotStore) List(ctx context.Context) ([]models.CurrentRecord, error) {
	var rows []models.CurrentRecord
	if err := s.DB.WithContext(ctx).Order("market_cap DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PostgresSnapshotStore) RefreshedAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullTime
	row := s.DB.WithContext(ctx).Model(&models.CurrentRecord{}).Select("MAX(refreshed_at)").Row()
	if err := row.Scan(&ts); err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

type PostgresHistoryStore struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewPostgresHistoryStore(db *gorm.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{DB: db, now: time.Now}
}

func (s *PostgresHistoryStore) Append(ctx context.Context, entries []models.HistoryRecord) error {
	if len(entries) == 0 {
		return nil
	}

	stamp := s.now().UTC()
	rows := make([]models.HistoryRecord, len(entries))
	for i, e := range entries {
		e.ID = 0
		if e.CollectedAt.IsZero() {
			e.CollectedAt = stamp
		}
		rows[i] = e
	}

	return withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
	})
}

func (s *PostgresHistoryStore) List(ctx context.Context) ([]models.HistoryRecord, error) {
	var rows []models.HistoryRecord
	if err := s.DB.WithContext(ctx).Order("collected_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PostgresHistoryStore) ListByCoin(ctx context.Context, coinID string) ([]models.HistoryRecord, error) {
	var rows []models.HistoryRecord
	err := s.DB.WithContext(ctx).
		Where("coin_id = ?", coinID).
		Order("collected_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// withRetry retries fn on deadlock (40P01) and serialization (40001) failures
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteRetries; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}

		backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(backoff):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
