package storage

import (
	"fmt"
	"time"

	"trade-journal-go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore persists trades in a sqlite database through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// ensure the interface is satisfied
var _ TradeStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the sqlite database at dsn and
// migrates the trades table.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Trade{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Insert appends a trade. The autoincrement primary key assigns the id;
// audit timestamps are stamped here.
func (s *SQLiteStore) Insert(trade *models.Trade) error {
	now := time.Now().Format(models.TimestampLayout)
	trade.CreatedAt = now
	trade.UpdatedAt = now
	if err := s.db.Create(trade).Error; err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// ReadAll returns every trade in the table.
func (s *SQLiteStore) ReadAll() ([]models.Trade, error) {
	trades := []models.Trade{}
	if err := s.db.Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	return trades, nil
}
