// Package report is the reporting engine: pure functions that turn a
// snapshot of trade records plus the journal settings into P&L, ROI,
// currency aggregates and goal-progress figures. Nothing here mutates the
// snapshot or holds state, so every function is safe to recompute on each
// view refresh.
package report

import (
	"context"
	"math"
	"time"

	"trade-journal-go/internal/models"
)

// PriceLookup supplies a last-traded-price estimate for an open position.
// Implementations must return an error (rather than panic or block
// indefinitely) when no price is available; the engine treats any error as
// "unavailable" and skips that position.
type PriceLookup interface {
	LastPrice(ctx context.Context, symbol, market string) (float64, error)
}

// DaysHeld returns the whole days between the entry date and the effective
// exit: the exit date when recorded, else today normalized to midnight. Open
// trades therefore get an as-of-today duration.
func DaysHeld(t *models.Trade, today time.Time) (int, error) {
	entry, err := t.EntryTime()
	if err != nil {
		return 0, err
	}
	// Normalize "today" to midnight UTC so the difference against parsed
	// calendar dates is a whole number of days.
	exit := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if t.ExitDate != nil {
		exit, err = time.Parse(models.DateLayout, *t.ExitDate)
		if err != nil {
			return 0, err
		}
	}
	return int(exit.Sub(entry).Hours() / 24), nil
}

// ROIPct returns the return on invested capital as a percentage, using the
// effective exit price so an open trade contributes zero raw P&L. When
// capital invested is absent or non-positive the ROI is undefined and NaN is
// returned; aggregates must filter it out, never coerce it to zero.
func ROIPct(t *models.Trade) float64 {
	if t.CapitalInvested == nil || *t.CapitalInvested <= 0 {
		return math.NaN()
	}
	pnl := (t.EffectiveExitPrice() - t.EntryPrice) * float64(t.Quantity)
	return pnl / *t.CapitalInvested * 100
}

// ClosedPnL sums realized profit over closed trades, across all currencies
// present in the snapshot. Callers wanting per-currency figures filter the
// rows first. An empty or all-open snapshot yields 0.
func ClosedPnL(trades []models.Trade) float64 {
	total := 0.0
	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			continue
		}
		total += (*t.ExitPrice - t.EntryPrice) * float64(t.Quantity)
	}
	return total
}

// OpenPnL estimates mark-to-market profit for open positions (exit price
// absent) using the price lookup, one sequential lookup per position. A
// position whose price is unavailable is skipped and counted; the returned
// total is a best-effort partial estimate, never an error. An empty or
// all-closed snapshot yields (0, 0).
func OpenPnL(ctx context.Context, trades []models.Trade, prices PriceLookup) (total float64, skipped int) {
	for i := range trades {
		t := &trades[i]
		if t.ExitPrice != nil {
			continue
		}
		ltp, err := prices.LastPrice(ctx, t.Symbol, t.Market)
		if err != nil {
			skipped++
			continue
		}
		total += (ltp - t.EntryPrice) * float64(t.Quantity)
	}
	return total, skipped
}

// CurrencyTotals sums native-currency P&L per currency code, valuing each
// trade at its effective exit price, so open trades contribute zero.
// Currencies with no matching rows are omitted from the result entirely.
// This is intentionally not reconcilable with ClosedPnL+OpenPnL, which value
// open positions at market.
func CurrencyTotals(trades []models.Trade) map[string]float64 {
	out := make(map[string]float64)
	for _, cur := range models.Currencies() {
		found := false
		sum := 0.0
		for i := range trades {
			t := &trades[i]
			if t.Currency != cur {
				continue
			}
			found = true
			sum += (t.EffectiveExitPrice() - t.EntryPrice) * float64(t.Quantity)
		}
		if found {
			out[cur] = sum
		}
	}
	return out
}

// BestTrade identifies the trade with the highest defined ROI.
type BestTrade struct {
	Symbol string  `json:"symbol"`
	ROIPct float64 `json:"best_roi_pct"`
}

// FindBestTrade returns the trade with the maximum defined ROI, rounded to
// two decimal places, preferring the first-encountered row on ties. The
// second return is false when no trade has a defined ROI.
func FindBestTrade(trades []models.Trade) (BestTrade, bool) {
	best := math.NaN()
	idx := -1
	for i := range trades {
		roi := ROIPct(&trades[i])
		if math.IsNaN(roi) {
			continue
		}
		if idx == -1 || roi > best {
			best = roi
			idx = i
		}
	}
	if idx == -1 {
		return BestTrade{}, false
	}
	return BestTrade{
		Symbol: trades[idx].Symbol,
		ROIPct: math.Round(best*100) / 100,
	}, true
}

// GoalProgress reports achieved closed P&L in one currency against that
// currency's configured monthly goal.
type GoalProgress struct {
	Goal        float64 `json:"goal"`
	Achieved    float64 `json:"achieved"`
	ProgressPct float64 `json:"progress_pct"`
}

// ComputeGoalProgress filters the snapshot to the requested currency,
// restricts to closed trades and sums their realized P&L, then expresses
// that against the currency's goal. No FX conversion is applied: progress is
// always native to the requested currency. A zero or absent goal yields 0%
// regardless of the achieved amount.
func ComputeGoalProgress(trades []models.Trade, currency string, settings models.Settings) GoalProgress {
	achieved := 0.0
	for i := range trades {
		t := &trades[i]
		if t.Currency != currency || t.ExitPrice == nil {
			continue
		}
		achieved += (*t.ExitPrice - t.EntryPrice) * float64(t.Quantity)
	}
	goal := settings.GoalFor(currency)
	pct := 0.0
	if goal > 0 {
		pct = achieved / goal * 100
	}
	return GoalProgress{Goal: goal, Achieved: achieved, ProgressPct: pct}
}
