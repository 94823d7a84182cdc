package models

import "time"

// DateLayout is the calendar-date format used for entry and exit dates.
const DateLayout = "2006-01-02"

// TimestampLayout is the format used for the created_at/updated_at audit columns.
const TimestampLayout = "2006-01-02 15:04:05"

// Market identifiers for the three supported exchanges.
const (
	MarketIndia     = "India"
	MarketUS        = "US"
	MarketAustralia = "Australia"
)

// Currency codes for the three supported trade currencies.
const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
	CurrencyAUD = "AUD"
)

// Markets lists the supported markets.
func Markets() []string {
	return []string{MarketIndia, MarketUS, MarketAustralia}
}

// Currencies lists the supported currency codes.
func Currencies() []string {
	return []string{CurrencyINR, CurrencyUSD, CurrencyAUD}
}

// DefaultCurrencyFor returns the natural trade currency for a market.
func DefaultCurrencyFor(market string) string {
	switch market {
	case MarketIndia:
		return CurrencyINR
	case MarketUS:
		return CurrencyUSD
	default:
		return CurrencyAUD
	}
}

// Sectors returns the suggested sector labels. Free text is still accepted.
func Sectors() []string {
	return []string{
		"IT", "Banking/Financials", "Energy/Oil & Gas", "Consumer",
		"Auto/Auto Ancillaries", "Metals/Mining", "Pharma/Healthcare",
		"Utilities", "Real Estate", "Telecom", "ETF/Index", "Other",
	}
}

// TradeTypes returns the suggested trade type labels. Free text is still accepted.
func TradeTypes() []string {
	return []string{
		"Swing Long", "Swing Short", "Positional Long", "Positional Short",
		"Event/Earnings", "Other",
	}
}

// Trade is a single journal entry: one position with a single entry and,
// once closed, a single exit. Optional columns are pointers so that an
// absent value is distinguishable from zero.
type Trade struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	User            string   `json:"user"`
	Market          string   `json:"market"`
	Symbol          string   `json:"symbol"`
	Currency        string   `json:"currency"`
	Sector          string   `json:"sector"`
	TradeType       string   `json:"trade_type"`
	EntryDate       string   `json:"entry_date"`
	ExitDate        *string  `json:"exit_date,omitempty"`
	Quantity        int64    `json:"qty"`
	EntryPrice      float64  `json:"entry_price"`
	ExitPrice       *float64 `json:"exit_price,omitempty"`
	CapitalInvested *float64 `json:"capital_invested,omitempty"`
	StopLoss        *float64 `json:"sl,omitempty"`
	Target          *float64 `json:"target,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// TableName sets the sqlite table name used by gorm.
func (Trade) TableName() string {
	return "trades"
}

// IsClosed reports whether the position has been exited. Both the exit date
// and the exit price must be recorded; an exit date without an exit price
// still leaves the trade open.
func (t *Trade) IsClosed() bool {
	return t.ExitDate != nil && t.ExitPrice != nil
}

// EffectiveExitPrice returns the exit price if recorded, else the entry
// price. Open trades therefore contribute zero P&L wherever this is used.
func (t *Trade) EffectiveExitPrice() float64 {
	if t.ExitPrice != nil {
		return *t.ExitPrice
	}
	return t.EntryPrice
}

// EntryTime parses the entry date.
func (t *Trade) EntryTime() (time.Time, error) {
	return time.Parse(DateLayout, t.EntryDate)
}
