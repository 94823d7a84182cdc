package models

// Settings is the singleton journal configuration: the reporting base
// currency, FX multipliers into that base, and per-currency monthly goals.
type Settings struct {
	BaseCurrency string             `json:"base_currency"`
	FXToBase     map[string]float64 `json:"fx_to_base"`
	Goals        map[string]float64 `json:"goals"`
}

// DefaultSettings returns the hard-coded settings used when nothing has
// been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		BaseCurrency: CurrencyAUD,
		FXToBase: map[string]float64{
			CurrencyAUD: 1.0,
			CurrencyUSD: 1.55,
			CurrencyINR: 0.0185,
		},
		Goals: map[string]float64{
			CurrencyAUD: 500,
			CurrencyUSD: 0,
			CurrencyINR: 0,
		},
	}
}

// FillMissing backfills absent top-level fields from the defaults and
// reports whether anything changed. The merge is deliberately shallow: a
// stored fx_to_base or goals map missing an individual currency key is left
// as-is, matching the persisted-document contract.
func (s *Settings) FillMissing() bool {
	def := DefaultSettings()
	changed := false
	if s.BaseCurrency == "" {
		s.BaseCurrency = def.BaseCurrency
		changed = true
	}
	if s.FXToBase == nil {
		s.FXToBase = def.FXToBase
		changed = true
	}
	if s.Goals == nil {
		s.Goals = def.Goals
		changed = true
	}
	return changed
}

// GoalFor returns the monthly goal configured for a currency, 0 if absent.
func (s *Settings) GoalFor(currency string) float64 {
	if s.Goals == nil {
		return 0
	}
	return s.Goals[currency]
}
