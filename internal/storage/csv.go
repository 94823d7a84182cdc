package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"trade-journal-go/internal/models"

	"go.uber.org/zap"
)

// csvHeader is the fixed column set of the flat-file backend. Order matters;
// it is the on-disk schema.
var csvHeader = []string{
	"id", "user", "market", "symbol", "currency", "sector", "trade_type",
	"entry_date", "exit_date", "qty", "entry_price", "exit_price",
	"capital_invested", "sl", "target", "notes", "created_at", "updated_at",
}

// CSVStore persists trades in a single CSV file. The file is rewritten
// atomically (temp file + rename) after each insert, with an in-memory copy
// serving reads.
type CSVStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	trades []models.Trade
}

var _ TradeStore = (*CSVStore)(nil)

// NewCSVStore opens the CSV file at path, creating it with a header row if
// it does not exist, and loads all existing rows.
func NewCSVStore(path string, logger *zap.Logger) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &CSVStore{path: path, logger: logger}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := atomicWriteCSV(path, [][]string{csvHeader}); err != nil {
			return nil, err
		}
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return err
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < len(csvHeader) {
			s.logger.Warn("Skipping short CSV row", zap.Int("row", i), zap.Int("columns", len(row)))
			continue
		}
		s.trades = append(s.trades, rowToTrade(row))
	}
	return nil
}

// Insert assigns the next id (max existing + 1, 1 for an empty file), stamps
// the audit timestamps and rewrites the file.
func (s *CSVStore) Insert(trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID uint
	for i := range s.trades {
		if s.trades[i].ID > maxID {
			maxID = s.trades[i].ID
		}
	}
	trade.ID = maxID + 1

	now := time.Now().Format(models.TimestampLayout)
	trade.CreatedAt = now
	trade.UpdatedAt = now

	s.trades = append(s.trades, *trade)
	return s.saveLocked()
}

// ReadAll returns a copy of every trade in the file.
func (s *CSVStore) ReadAll() ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trade, len(s.trades))
	copy(out, s.trades)
	return out, nil
}

func (s *CSVStore) saveLocked() error {
	rows := make([][]string, 0, len(s.trades)+1)
	rows = append(rows, csvHeader)
	for i := range s.trades {
		rows = append(rows, tradeToRow(&s.trades[i]))
	}
	return atomicWriteCSV(s.path, rows)
}

func tradeToRow(t *models.Trade) []string {
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.User,
		t.Market,
		t.Symbol,
		t.Currency,
		t.Sector,
		t.TradeType,
		t.EntryDate,
		strOrEmpty(t.ExitDate),
		strconv.FormatInt(t.Quantity, 10),
		strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
		floatOrEmpty(t.ExitPrice),
		floatOrEmpty(t.CapitalInvested),
		floatOrEmpty(t.StopLoss),
		floatOrEmpty(t.Target),
		t.Notes,
		t.CreatedAt,
		t.UpdatedAt,
	}
}

func rowToTrade(row []string) models.Trade {
	id, _ := strconv.ParseUint(row[0], 10, 64)
	qty, _ := strconv.ParseInt(row[9], 10, 64)
	entryPrice, _ := strconv.ParseFloat(row[10], 64)
	return models.Trade{
		ID:              uint(id),
		User:            row[1],
		Market:          row[2],
		Symbol:          row[3],
		Currency:        row[4],
		Sector:          row[5],
		TradeType:       row[6],
		EntryDate:       row[7],
		ExitDate:        emptyToNilStr(row[8]),
		Quantity:        qty,
		EntryPrice:      entryPrice,
		ExitPrice:       emptyToNilFloat(row[11]),
		CapitalInvested: emptyToNilFloat(row[12]),
		StopLoss:        emptyToNilFloat(row[13]),
		Target:          emptyToNilFloat(row[14]),
		Notes:           row[15],
		CreatedAt:       row[16],
		UpdatedAt:       row[17],
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func emptyToNilStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyToNilFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func atomicWriteCSV(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "tmp-*.csv")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
