/**
 * @description
 * Type definitions for the CoinGecko /coins/markets response.
 * Numeric fields are pointers so a JSON null is distinguishable from zero.
 */

package coingecko

import (
	"strings"

	"github.com/coinpulse-project/backend/internal/models"
)

// CoinMarket represents one entry of /coins/markets
type CoinMarket struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	Symbol                   string   `json:"symbol"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	LastUpdated              string   `json:"last_updated"` // ISO string, kept verbatim
}

// MissingFields lists the required provider fields that are absent, null or blank
func (cm *CoinMarket) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(cm.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(cm.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(cm.Symbol) == "" {
		missing = append(missing, "symbol")
	}
	if cm.CurrentPrice == nil {
		missing = append(missing, "current_price")
	}
	if cm.MarketCap == nil {
		missing = append(missing, "market_cap")
	}
	if cm.PriceChangePercentage24h == nil {
		missing = append(missing, "price_change_percentage_24h")
	}
	if strings.TrimSpace(cm.LastUpdated) == "" {
		missing = append(missing, "last_updated")
	}
	return missing
}

// ToRecord renames provider fields into the canonical record.
// Null numbers become zero; callers check MissingFields first.
func (cm *CoinMarket) ToRecord() models.Record {
	return models.Record{
		EntityID:         cm.ID,
		Name:             cm.Name,
		Symbol:           cm.Symbol,
		Price:            deref(cm.CurrentPrice),
		MarketCap:        deref(cm.MarketCap),
		ChangePercent24h: deref(cm.PriceChangePercentage24h),
		LastUpdated:      cm.LastUpdated,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
