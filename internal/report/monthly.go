package report

import (
	"context"
	"sort"
	"time"

	"trade-journal-go/internal/models"
)

// MonthLayout is the year-month key format used to scope reports.
const MonthLayout = "2006-01"

// MonthKey returns the year-month of a trade's entry date, or false when the
// entry date does not parse.
func MonthKey(t *models.Trade) (string, bool) {
	entry, err := t.EntryTime()
	if err != nil {
		return "", false
	}
	return entry.Format(MonthLayout), true
}

// FilterMonth returns the trades whose entry date falls in the given
// year-month. Trades with unparseable entry dates never match.
func FilterMonth(trades []models.Trade, month string) []models.Trade {
	out := []models.Trade{}
	for i := range trades {
		if key, ok := MonthKey(&trades[i]); ok && key == month {
			out = append(out, trades[i])
		}
	}
	return out
}

// Months returns the sorted distinct year-month keys present in the
// snapshot.
func Months(trades []models.Trade) []string {
	seen := make(map[string]struct{})
	for i := range trades {
		if key, ok := MonthKey(&trades[i]); ok {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// MonthCount is the number of trades entered in one month.
type MonthCount struct {
	Month  string `json:"month"`
	Trades int    `json:"trades"`
}

// TradesPerMonth counts trades by entry month, sorted by month ascending.
// This feeds the activity chart on the dashboard.
func TradesPerMonth(trades []models.Trade) []MonthCount {
	counts := make(map[string]int)
	for i := range trades {
		if key, ok := MonthKey(&trades[i]); ok {
			counts[key]++
		}
	}
	out := make([]MonthCount, 0, len(counts))
	for _, month := range Months(trades) {
		out = append(out, MonthCount{Month: month, Trades: counts[month]})
	}
	return out
}

// Summary bundles the monthly report figures for one year-month.
type Summary struct {
	Month          string             `json:"month"`
	TradeCount     int                `json:"trade_count"`
	ClosedPnL      float64            `json:"closed_pnl"`
	OpenPnL        float64            `json:"open_pnl"`
	OpenSkipped    int                `json:"open_skipped"`
	CurrencyTotals map[string]float64 `json:"currency_totals"`
	BestTrade      *BestTrade         `json:"best_trade,omitempty"`
	GoalProgress   GoalProgress       `json:"goal_progress"`
	Trades         []models.Trade     `json:"trades"`
}

// MonthlySummary computes the full report for one month: realized P&L,
// best-effort open P&L (when includeOpen is set), native currency totals,
// the best trade by ROI and goal progress in the requested currency. It
// never fails for data-quality reasons; missing prices only raise the
// skipped count.
func MonthlySummary(ctx context.Context, trades []models.Trade, month, goalCurrency string, includeOpen bool, settings models.Settings, prices PriceLookup) Summary {
	monthTrades := FilterMonth(trades, month)

	s := Summary{
		Month:          month,
		TradeCount:     len(monthTrades),
		ClosedPnL:      ClosedPnL(monthTrades),
		CurrencyTotals: CurrencyTotals(monthTrades),
		GoalProgress:   ComputeGoalProgress(monthTrades, goalCurrency, settings),
		Trades:         monthTrades,
	}
	if includeOpen {
		s.OpenPnL, s.OpenSkipped = OpenPnL(ctx, monthTrades, prices)
	}
	if best, ok := FindBestTrade(monthTrades); ok {
		s.BestTrade = &best
	}

	// Newest entries first for display.
	sort.SliceStable(s.Trades, func(i, j int) bool {
		return s.Trades[i].EntryDate > s.Trades[j].EntryDate
	})
	return s
}

// CurrentMonth returns the year-month key for the given time.
func CurrentMonth(now time.Time) string {
	return now.Format(MonthLayout)
}
