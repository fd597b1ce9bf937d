package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/models"
)

// NormalizeBatch turns a provider batch into canonical records.
//
// The whole batch fails if its size differs from expectedSize (when positive) or if
// any entry is invalid; a partial batch would break the snapshot's replace-all
// semantics. Repeated ids keep the last occurrence at the rank of the first.
func NormalizeBatch(markets []coingecko.CoinMarket, expectedSize int) ([]models.Record, error) {
	if expectedSize > 0 && len(markets) != expectedSize {
		return nil, fmt.Errorf("%w: expected %d records, got %d", ErrValidationFailed, expectedSize, len(markets))
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrValidationFailed)
	}

	records := make([]models.Record, 0, len(markets))
	position := make(map[string]int, len(markets))

	for i := range markets {
		rec, err := normalizeMarket(&markets[i])
		if err != nil {
			return nil, err
		}

		if idx, seen := position[rec.EntityID]; seen {
			records[idx] = rec
			continue
		}
		position[rec.EntityID] = len(records)
		records = append(records, rec)
	}

	return records, nil
}

func normalizeMarket(cm *coingecko.CoinMarket) (models.Record, error) {
	if missing := cm.MissingFields(); len(missing) > 0 {
		return models.Record{}, fmt.Errorf("%w: coin %q missing %s", ErrValidationFailed, cm.ID, strings.Join(missing, ", "))
	}

	rec := cm.ToRecord()
	rec.EntityID = strings.TrimSpace(rec.EntityID)
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Symbol = strings.TrimSpace(rec.Symbol)
	rec.LastUpdated = strings.TrimSpace(rec.LastUpdated)

	checks := []struct {
		field  string
		value  float64
		nonNeg bool
	}{
		{"current_price", rec.Price, true},
		{"market_cap", rec.MarketCap, true},
		{"price_change_percentage_24h", rec.ChangePercent24h, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return models.Record{}, fmt.Errorf("%w: coin %q has non-finite %s", ErrValidationFailed, rec.EntityID, c.field)
		}
		if c.nonNeg && c.value < 0 {
			return models.Record{}, fmt.Errorf("%w: coin %q has negative %s", ErrValidationFailed, rec.EntityID, c.field)
		}
	}

	return rec, nil
}
