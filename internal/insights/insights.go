// Package insights produces risk-first suggestions (stop-loss and targets)
// for a planned trade. When an LLM backend is configured it is asked first;
// any configuration gap or failure falls back to a local volatility-based
// heuristic, so the caller always gets a suggestion.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"trade-journal-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Bias labels for the planned direction.
const (
	BiasLong  = "Swing Long"
	BiasShort = "Swing Short"
)

// Request describes the planned trade to advise on.
type Request struct {
	Market          string  `json:"market"`
	Symbol          string  `json:"symbol"`
	Entry           float64 `json:"entry"`
	Bias            string  `json:"bias"`
	BaselineRiskPct float64 `json:"baseline_risk_pct"`
}

// Suggestion is the advised stop-loss and target levels. Source is "llm" or
// "heuristic" depending on which path produced it.
type Suggestion struct {
	StopLoss     float64 `json:"sl"`
	Target1      float64 `json:"t1"`
	Target2      float64 `json:"t2"`
	RiskPerShare float64 `json:"risk_per_share"`
	Rationale    string  `json:"rationale"`
	Source       string  `json:"source"`
}

// VolatilityProbe supplies a recent average daily range for a symbol, used
// by the heuristic to size risk. market data's client satisfies this.
type VolatilityProbe interface {
	TrueRangeAvg(ctx context.Context, symbol, market string) (float64, error)
}

// Service generates trade suggestions.
type Service struct {
	cfg        *config.Insights
	client     *resty.Client
	volatility VolatilityProbe
	logger     *zap.Logger
}

// NewService creates an insights service. volatility may not be nil; the
// LLM backend stays disabled while cfg.APIKey is empty.
func NewService(cfg *config.Insights, volatility VolatilityProbe, logger *zap.Logger) *Service {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second)
	return &Service{
		cfg:        cfg,
		client:     client,
		volatility: volatility,
		logger:     logger,
	}
}

// Suggest returns stop-loss and target levels for the planned trade. The
// LLM backend is consulted when configured; every failure path ends in the
// heuristic, never in an error for the caller.
func (s *Service) Suggest(ctx context.Context, req Request) Suggestion {
	if req.BaselineRiskPct <= 0 {
		req.BaselineRiskPct = 1.0
	}
	if s.cfg.APIKey == "" {
		return s.heuristic(ctx, req)
	}

	suggestion, err := s.askModel(ctx, req)
	if err != nil {
		s.logger.Warn("LLM suggestion failed, using heuristic",
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
		return s.heuristic(ctx, req)
	}
	return suggestion
}

// heuristic sizes risk per share as the larger of the baseline percentage of
// the entry price and 0.8x the recent average daily range, then places the
// stop one risk unit away and targets at 1.5x and 2.5x.
func (s *Service) heuristic(ctx context.Context, req Request) Suggestion {
	riskPerShare := req.BaselineRiskPct / 100 * req.Entry

	atr, err := s.volatility.TrueRangeAvg(ctx, req.Symbol, req.Market)
	rationale := fmt.Sprintf("flat %.1f%% of entry price (no volatility data)", req.BaselineRiskPct)
	if err == nil && atr > 0 {
		if v := 0.8 * atr; v > riskPerShare {
			riskPerShare = v
		}
		rationale = fmt.Sprintf("max of %.1f%% of entry and 0.8x the 14-day average range", req.BaselineRiskPct)
	}

	var sl, t1, t2 float64
	if strings.Contains(req.Bias, "Short") {
		sl = req.Entry + riskPerShare
		t1 = req.Entry - 1.5*riskPerShare
		t2 = req.Entry - 2.5*riskPerShare
	} else {
		sl = req.Entry - riskPerShare
		t1 = req.Entry + 1.5*riskPerShare
		t2 = req.Entry + 2.5*riskPerShare
	}

	return Suggestion{
		StopLoss:     round2(sl),
		Target1:      round2(t1),
		Target2:      round2(t2),
		RiskPerShare: round2(riskPerShare),
		Rationale:    rationale,
		Source:       "heuristic",
	}
}

// chatRequest/chatResponse mirror the OpenAI chat-completions wire format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *Service) askModel(ctx context.Context, req Request) (Suggestion, error) {
	prompt := fmt.Sprintf(
		"Market: %s; Symbol: %s; Planned entry: %g; Bias: %s.\n"+
			"Return only a JSON object with fields: sl, t1, t2, risk_per_share (numbers) and rationale (string, 50 words max).",
		req.Market, req.Symbol, req.Entry, req.Bias,
	)

	body := chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You output concise, practical risk-first trading suggestions."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	}

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return Suggestion{}, fmt.Errorf("chat completion request failed: %w", err)
	}
	if resp.IsError() {
		return Suggestion{}, fmt.Errorf("chat completion returned status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("chat completion returned no choices")
	}

	suggestion, err := parseSuggestion(out.Choices[0].Message.Content)
	if err != nil {
		return Suggestion{}, err
	}
	suggestion.Source = "llm"
	return suggestion, nil
}

// parseSuggestion extracts the JSON object from the model's reply, tolerating
// surrounding prose or markdown fences.
func parseSuggestion(content string) (Suggestion, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return Suggestion{}, fmt.Errorf("no JSON object in model reply")
	}
	var s Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse model reply: %w", err)
	}
	if s.StopLoss <= 0 {
		return Suggestion{}, fmt.Errorf("model reply missing stop-loss")
	}
	return s, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
