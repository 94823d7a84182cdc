package storage

import (
	"testing"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore("file::memory:")
	require.NoError(t, err)
	return store
}

func TestSQLiteStoreEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)
	trades, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSQLiteStoreInsertAndRead(t *testing.T) {
	store := newTestSQLiteStore(t)

	closed := models.Trade{
		User: "demo", Market: models.MarketUS, Symbol: "AAPL",
		Currency: models.CurrencyUSD, Sector: "IT", TradeType: "Swing Long",
		EntryDate: "2025-03-05", ExitDate: strPtr("2025-03-20"),
		Quantity: 10, EntryPrice: 100, ExitPrice: f64Ptr(120),
		CapitalInvested: f64Ptr(1000),
	}
	require.NoError(t, store.Insert(&closed))
	assert.Equal(t, uint(1), closed.ID)
	assert.NotEmpty(t, closed.CreatedAt)

	open := models.Trade{
		User: "demo", Market: models.MarketAustralia, Symbol: "BHP",
		Currency: models.CurrencyAUD, EntryDate: "2025-03-10",
		Quantity: 25, EntryPrice: 40,
	}
	require.NoError(t, store.Insert(&open))
	assert.Equal(t, uint(2), open.ID)

	trades, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, closed, trades[0])
	assert.Equal(t, open, trades[1])
	assert.Nil(t, trades[1].ExitPrice)
}
