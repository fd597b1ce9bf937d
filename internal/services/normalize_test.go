package services

import (
	"math"
	"testing"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBatchRenamesFields(t *testing.T) {
	records, err := NormalizeBatch([]coingecko.CoinMarket{market("btc", 50000, 1e12, 2.5)}, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "btc", r.EntityID)
	assert.Equal(t, "btc-name", r.Name)
	assert.Equal(t, "btc", r.Symbol)
	assert.Equal(t, 50000.0, r.Price)
	assert.Equal(t, 1e12, r.MarketCap)
	assert.Equal(t, 2.5, r.ChangePercent24h)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", r.LastUpdated)
}

func TestNormalizeBatchRejectsWrongSize(t *testing.T) {
	_, err := NormalizeBatch([]coingecko.CoinMarket{market("btc", 1, 1, 1)}, 10)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = NormalizeBatch(nil, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestNormalizeBatchFailsWholeBatchOnBadRecord(t *testing.T) {
	nullPrice := market("eth", 0, 1, 1)
	nullPrice.CurrentPrice = nil

	noName := market("sol", 1, 1, 1)
	noName.Name = ""

	blankName := market("sol", 1, 1, 1)
	blankName.Name = "   "

	blankSymbol := market("sol", 1, 1, 1)
	blankSymbol.Symbol = "\t"

	noTimestamp := market("sol", 1, 1, 1)
	noTimestamp.LastUpdated = ""

	cases := map[string]coingecko.CoinMarket{
		"null price":     nullPrice,
		"missing name":   noName,
		"blank name":     blankName,
		"blank symbol":   blankSymbol,
		"no timestamp":   noTimestamp,
		"negative price": market("eth", -1, 1, 1),
		"negative cap":   market("eth", 1, -5, 1),
		"nan change":     market("eth", 1, 1, math.NaN()),
		"inf cap":        market("eth", 1, math.Inf(1), 1),
		"blank id":       market("   ", 1, 1, 1),
	}

	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			batch := []coingecko.CoinMarket{market("btc", 50000, 1e12, 2.5), bad}
			records, err := NormalizeBatch(batch, 2)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.Nil(t, records)
		})
	}
}

func TestNormalizeBatchTrimsTextFields(t *testing.T) {
	m := market(" btc ", 50000, 1e12, 2.5)
	m.Name = " Bitcoin "
	m.Symbol = "btc\n"

	records, err := NormalizeBatch([]coingecko.CoinMarket{m}, 1)
	require.NoError(t, err)
	assert.Equal(t, "btc", records[0].EntityID)
	assert.Equal(t, "Bitcoin", records[0].Name)
	assert.Equal(t, "btc", records[0].Symbol)
}

func TestNormalizeBatchAllowsNegativeChange(t *testing.T) {
	records, err := NormalizeBatch([]coingecko.CoinMarket{market("btc", 50000, 1e12, -12.75)}, 1)
	require.NoError(t, err)
	assert.Equal(t, -12.75, records[0].ChangePercent24h)
}

func TestNormalizeBatchDeduplicatesKeepingLast(t *testing.T) {
	batch := []coingecko.CoinMarket{
		market("btc", 50000, 1e12, 1),
		market("eth", 3000, 4e11, 1),
		market("btc", 50500, 1e12, 1),
	}

	records, err := NormalizeBatch(batch, 3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "btc", records[0].EntityID)
	assert.Equal(t, 50500.0, records[0].Price)
	assert.Equal(t, "eth", records[1].EntityID)
}
