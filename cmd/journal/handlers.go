package main

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/gitsync"
	"trade-journal-go/internal/insights"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/report"
	"trade-journal-go/internal/session"
	"trade-journal-go/internal/storage"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log      *zap.Logger
	cfg      *config.Config
	store    storage.TradeStore
	settings *storage.SettingsStore
	prices   report.PriceLookup
	insights *insights.Service
	sync     *gitsync.Syncer
	sessions *session.Manager
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, cfg *config.Config, store storage.TradeStore, settings *storage.SettingsStore, prices report.PriceLookup, insightsSvc *insights.Service, sync *gitsync.Syncer, sessions *session.Manager) *APIHandler {
	return &APIHandler{
		log:      log,
		cfg:      cfg,
		store:    store,
		settings: settings,
		prices:   prices,
		insights: insightsSvc,
		sync:     sync,
		sessions: sessions,
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// requireAuth wraps a handler with bearer-token session validation.
func (h *APIHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, ok := h.sessions.Validate(token); !ok {
			h.writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

// StatusHandler reports liveness and the active storage backend.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.cfg.Storage.Backend,
	})
}

// LoginHandler exchanges credentials for a session token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.sessions.Login(creds.Username, creds.Password)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.log.Info("User logged in", zap.String("user", s.User))
	h.writeJSON(w, http.StatusOK, map[string]string{"token": s.Token, "user": s.User})
}

// LogoutHandler tears the session down.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	h.sessions.Logout(token)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MetaHandler returns the fixed enumerations and suggestion lists the form
// UI offers.
func (h *APIHandler) MetaHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"markets":     models.Markets(),
		"currencies":  models.Currencies(),
		"sectors":     models.Sectors(),
		"trade_types": models.TradeTypes(),
	})
}

// tradeView is a trade row plus its derived columns. ROI is omitted when
// undefined rather than coerced to zero.
type tradeView struct {
	models.Trade
	DaysHeld *int     `json:"days_held,omitempty"`
	ROIPct   *float64 `json:"roi_pct,omitempty"`
}

// TradesHandler lists all trades (GET) or records a new one (POST).
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTrades(w, r)
	case http.MethodPost:
		h.recordTrade(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *APIHandler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.ReadAll()
	if err != nil {
		h.log.Error("Failed to read trades", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to read trades")
		return
	}

	today := time.Now()
	views := make([]tradeView, 0, len(trades))
	for i := range trades {
		v := tradeView{Trade: trades[i]}
		if days, err := report.DaysHeld(&trades[i], today); err == nil {
			v.DaysHeld = &days
		}
		if roi := report.ROIPct(&trades[i]); !math.IsNaN(roi) {
			rounded := math.Round(roi*100) / 100
			v.ROIPct = &rounded
		}
		views = append(views, v)
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *APIHandler) recordTrade(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateTrade(&trade); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	trade.ID = 0 // assigned by the store
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))
	if trade.Currency == "" {
		trade.Currency = models.DefaultCurrencyFor(trade.Market)
	}

	if err := h.store.Insert(&trade); err != nil {
		h.log.Error("Failed to insert trade", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to save trade")
		return
	}
	h.log.Info("Trade recorded",
		zap.Uint("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.String("market", trade.Market),
	)

	// Repository sync only applies to the flat-file backend and is always
	// fire-and-forget.
	if h.cfg.Storage.Backend == storage.BackendCSV && h.sync.Enabled() {
		if err := h.sync.Sync(r.Context(), h.cfg.Storage.CSVPath); err != nil {
			h.log.Warn("GitHub sync skipped", zap.Error(err))
		}
	}

	h.writeJSON(w, http.StatusCreated, trade)
}

func validateTrade(t *models.Trade) string {
	validMarket := false
	for _, m := range models.Markets() {
		if t.Market == m {
			validMarket = true
			break
		}
	}
	if !validMarket {
		return "market must be one of India, US, Australia"
	}
	if t.Currency != "" {
		validCurrency := false
		for _, c := range models.Currencies() {
			if t.Currency == c {
				validCurrency = true
				break
			}
		}
		if !validCurrency {
			return "currency must be one of INR, USD, AUD"
		}
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return "symbol is required"
	}
	if _, err := time.Parse(models.DateLayout, t.EntryDate); err != nil {
		return "entry_date must be a YYYY-MM-DD date"
	}
	if t.ExitDate != nil {
		if _, err := time.Parse(models.DateLayout, *t.ExitDate); err != nil {
			return "exit_date must be a YYYY-MM-DD date"
		}
	}
	if t.Quantity < 0 {
		return "qty must not be negative"
	}
	if t.EntryPrice <= 0 {
		return "entry_price must be positive"
	}
	if t.ExitPrice != nil && *t.ExitPrice <= 0 {
		return "exit_price must be positive when present"
	}
	if t.CapitalInvested != nil && *t.CapitalInvested <= 0 {
		return "capital_invested must be positive when present"
	}
	return ""
}

// ReportHandler computes the monthly summary for the requested month and
// goal currency.
func (h *APIHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.ReadAll()
	if err != nil {
		h.log.Error("Failed to read trades", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to read trades")
		return
	}
	settings, err := h.settings.Load()
	if err != nil {
		h.log.Error("Failed to load settings", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	q := r.URL.Query()
	month := q.Get("month")
	if month == "" {
		month = report.CurrentMonth(time.Now())
	}
	goalCurrency := q.Get("goal_currency")
	if goalCurrency == "" {
		goalCurrency = settings.BaseCurrency
	}
	includeOpen := q.Get("include_open") != "false"

	summary := report.MonthlySummary(r.Context(), trades, month, goalCurrency, includeOpen, settings, h.prices)
	if summary.OpenSkipped > 0 {
		h.log.Info("Open P&L estimated without prices for some positions",
			zap.Int("skipped", summary.OpenSkipped),
		)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"summary":          summary,
		"months":           report.Months(trades),
		"trades_per_month": report.TradesPerMonth(trades),
	})
}

// SettingsHandler reads (GET) or wholesale-replaces (PUT) the settings.
func (h *APIHandler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := h.settings.Load()
		if err != nil {
			h.log.Error("Failed to load settings", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		h.writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var settings models.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		validBase := false
		for _, c := range models.Currencies() {
			if settings.BaseCurrency == c {
				validBase = true
				break
			}
		}
		if !validBase {
			h.writeError(w, http.StatusBadRequest, "base_currency must be one of INR, USD, AUD")
			return
		}
		if err := h.settings.Save(settings); err != nil {
			h.log.Error("Failed to save settings", zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		h.writeJSON(w, http.StatusOK, settings)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// InsightsHandler returns a suggested stop-loss and targets for a planned
// trade.
func (h *APIHandler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req insights.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" || req.Entry <= 0 {
		h.writeError(w, http.StatusBadRequest, "symbol and a positive entry are required")
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	h.writeJSON(w, http.StatusOK, h.insights.Suggest(r.Context(), req))
}
