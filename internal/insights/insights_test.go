package insights

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/marketdata"
	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeVolatility returns a fixed average range, or unavailable.
type fakeVolatility struct {
	atr float64
	ok  bool
}

func (f *fakeVolatility) TrueRangeAvg(context.Context, string, string) (float64, error) {
	if !f.ok {
		return 0, marketdata.ErrUnavailable
	}
	return f.atr, nil
}

func TestHeuristicFlatRisk(t *testing.T) {
	svc := NewService(&config.Insights{}, &fakeVolatility{}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Market:          models.MarketUS,
		Symbol:          "AAPL",
		Entry:           100,
		Bias:            BiasLong,
		BaselineRiskPct: 1.0,
	})

	// 1% of 100 = 1 risk per share, no volatility data.
	assert.Equal(t, "heuristic", s.Source)
	assert.Equal(t, 1.0, s.RiskPerShare)
	assert.Equal(t, 99.0, s.StopLoss)
	assert.Equal(t, 101.5, s.Target1)
	assert.Equal(t, 102.5, s.Target2)
}

func TestHeuristicUsesVolatilityWhenLarger(t *testing.T) {
	svc := NewService(&config.Insights{}, &fakeVolatility{atr: 5, ok: true}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Market:          models.MarketUS,
		Symbol:          "AAPL",
		Entry:           100,
		Bias:            BiasLong,
		BaselineRiskPct: 1.0,
	})

	// 0.8 * 5 = 4 beats the 1% flat risk.
	assert.Equal(t, 4.0, s.RiskPerShare)
	assert.Equal(t, 96.0, s.StopLoss)
	assert.Equal(t, 106.0, s.Target1)
	assert.Equal(t, 110.0, s.Target2)
}

func TestHeuristicShortBias(t *testing.T) {
	svc := NewService(&config.Insights{}, &fakeVolatility{}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Market:          models.MarketIndia,
		Symbol:          "INFY",
		Entry:           200,
		Bias:            BiasShort,
		BaselineRiskPct: 2.0,
	})

	assert.Equal(t, 4.0, s.RiskPerShare)
	assert.Equal(t, 204.0, s.StopLoss)
	assert.Equal(t, 194.0, s.Target1)
	assert.Equal(t, 190.0, s.Target2)
}

func TestHeuristicDefaultsBaselineRisk(t *testing.T) {
	svc := NewService(&config.Insights{}, &fakeVolatility{}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Symbol: "AAPL",
		Entry:  100,
		Bias:   BiasLong,
	})
	assert.Equal(t, 1.0, s.RiskPerShare)
}

func TestSuggestUsesModelWhenConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Here you go:\n{\"sl\": 95, \"t1\": 107.5, \"t2\": 112.5, \"risk_per_share\": 5, \"rationale\": \"support below\"}"}}]}`)
	}))
	defer server.Close()

	cfg := &config.Insights{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL}
	svc := NewService(cfg, &fakeVolatility{}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Market: models.MarketUS, Symbol: "AAPL", Entry: 100, Bias: BiasLong, BaselineRiskPct: 1,
	})

	assert.Equal(t, "llm", s.Source)
	assert.Equal(t, 95.0, s.StopLoss)
	assert.Equal(t, 107.5, s.Target1)
	assert.Equal(t, 112.5, s.Target2)
	assert.Equal(t, "support below", s.Rationale)
}

func TestSuggestFallsBackOnModelFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Insights{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL}
	svc := NewService(cfg, &fakeVolatility{}, zap.NewNop())

	s := svc.Suggest(context.Background(), Request{
		Market: models.MarketUS, Symbol: "AAPL", Entry: 100, Bias: BiasLong, BaselineRiskPct: 1,
	})
	assert.Equal(t, "heuristic", s.Source)
	assert.Equal(t, 99.0, s.StopLoss)
}

func TestParseSuggestion(t *testing.T) {
	t.Run("Bare JSON", func(t *testing.T) {
		s, err := parseSuggestion(`{"sl": 95, "t1": 107.5, "t2": 112.5, "risk_per_share": 5, "rationale": "x"}`)
		require.NoError(t, err)
		assert.Equal(t, 95.0, s.StopLoss)
	})

	t.Run("Fenced JSON", func(t *testing.T) {
		s, err := parseSuggestion("```json\n{\"sl\": 95, \"t1\": 107.5, \"t2\": 112.5}\n```")
		require.NoError(t, err)
		assert.Equal(t, 95.0, s.StopLoss)
	})

	t.Run("No JSON object", func(t *testing.T) {
		_, err := parseSuggestion("sorry, I cannot help with that")
		assert.Error(t, err)
	})

	t.Run("Missing stop-loss", func(t *testing.T) {
		_, err := parseSuggestion(`{"t1": 107.5}`)
		assert.Error(t, err)
	})
}
