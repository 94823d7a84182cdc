package storage

import (
	"fmt"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"

	"go.uber.org/zap"
)

// Backend names accepted by the storage configuration.
const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
)

// TradeStore is the durable table of trade records. Insert assigns the id
// and audit timestamps; ReadAll returns every record with no guaranteed
// order. Implementations perform no validation beyond what the caller
// already did.
type TradeStore interface {
	Insert(trade *models.Trade) error
	ReadAll() ([]models.Trade, error)
}

// NewTradeStore opens the trade store selected by the configuration.
func NewTradeStore(cfg *config.Storage, logger *zap.Logger) (TradeStore, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteStore(cfg.DSN)
	case BackendCSV:
		return NewCSVStore(cfg.CSVPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
