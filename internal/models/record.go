/**
 * @description
 * Coin record models.
 * Record is the canonical shape produced by ingestion; CurrentRecord and HistoryRecord
 * map to the 'current_records' and 'history_records' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm (tags only)
 *
 * @notes
 * - JSON field names follow the dashboard contract (coinId, priceChange24h, timestamp).
 */

package models

import (
	"time"
)

// Record is a single normalized market observation for one coin
type Record struct {
	EntityID         string  `json:"coinId"`
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"marketCap"`
	ChangePercent24h float64 `json:"priceChange24h"`
	LastUpdated      string  `json:"lastUpdated"`
}

// CurrentRecord is one row of the replace-all snapshot
type CurrentRecord struct {
	CoinID         string    `gorm:"column:coin_id;primaryKey" json:"coinId"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Symbol         string    `gorm:"column:symbol;not null" json:"symbol"`
	Price          float64   `gorm:"column:price;type:double precision" json:"price"`
	MarketCap      float64   `gorm:"column:market_cap;type:double precision" json:"marketCap"`
	PriceChange24h float64   `gorm:"column:price_change_24h;type:double precision" json:"priceChange24h"`
	LastUpdated    string    `gorm:"column:last_updated" json:"lastUpdated"`
	RefreshedAt    time.Time `gorm:"column:refreshed_at" json:"-"`
}

// TableName overrides the table name used by CurrentRecord to `current_records`
func (CurrentRecord) TableName() string {
	return "current_records"
}

// HistoryRecord is an immutable timestamped observation
type HistoryRecord struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CoinID         string    `gorm:"column:coin_id;not null;index:idx_history_coin_time" json:"coinId"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Symbol         string    `gorm:"column:symbol;not null" json:"symbol"`
	Price          float64   `gorm:"column:price;type:double precision" json:"price"`
	MarketCap      float64   `gorm:"column:market_cap;type:double precision" json:"marketCap"`
	PriceChange24h float64   `gorm:"column:price_change_24h;type:double precision" json:"priceChange24h"`
	CycleID        string    `gorm:"column:cycle_id;type:uuid" json:"cycleId,omitempty"`
	CollectedAt    time.Time `gorm:"column:collected_at;index:idx_history_coin_time" json:"timestamp"`
}

// TableName overrides the table name used by HistoryRecord to `history_records`
func (HistoryRecord) TableName() string {
	return "history_records"
}

// ToCurrent converts a normalized record into a snapshot row
func (r Record) ToCurrent(refreshedAt time.Time) CurrentRecord {
	return CurrentRecord{
		CoinID:         r.EntityID,
		Name:           r.Name,
		Symbol:         r.Symbol,
		Price:          r.Price,
		MarketCap:      r.MarketCap,
		PriceChange24h: r.ChangePercent24h,
		LastUpdated:    r.LastUpdated,
		RefreshedAt:    refreshedAt,
	}
}

// ToHistory converts a normalized record into a history entry.
// A zero collectedAt is left for the store to stamp.
func (r Record) ToHistory(cycleID string, collectedAt time.Time) HistoryRecord {
	return HistoryRecord{
		CoinID:         r.EntityID,
		Name:           r.Name,
		Symbol:         r.Symbol,
		Price:          r.Price,
		MarketCap:      r.MarketCap,
		PriceChange24h: r.ChangePercent24h,
		CycleID:        cycleID,
		CollectedAt:    collectedAt,
	}
}

// AllModels lists the tables managed by AutoMigrate
func AllModels() []interface{} {
	return []interface{}{&CurrentRecord{}, &HistoryRecord{}}
}
