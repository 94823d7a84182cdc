package main

import (
	"fmt"
	"net/http"
	"os"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/gitsync"
	"trade-journal-go/internal/insights"
	"trade-journal-go/internal/logger"
	"trade-journal-go/internal/marketdata"
	"trade-journal-go/internal/session"
	"trade-journal-go/internal/storage"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Open the trade store for the configured backend
	store, err := storage.NewTradeStore(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}
	log.Info("Trade store ready", zap.String("backend", cfg.Storage.Backend))

	settingsStore := storage.NewSettingsStore(cfg.Storage.SettingsPath)
	if _, err := settingsStore.Load(); err != nil {
		log.Fatal("Failed to initialize settings", zap.Error(err))
	}

	prices := marketdata.NewClient(&cfg.Market, log)
	insightsSvc := insights.NewService(&cfg.Insights, prices, log)
	syncer := gitsync.NewSyncer(&cfg.GitHub, log)
	sessions := session.NewManager(cfg.Auth.Username, cfg.Auth.Password)

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, &cfg, store, settingsStore, prices, insightsSvc, syncer, sessions)

	mux.HandleFunc("/api/status", apiHandler.StatusHandler)
	mux.HandleFunc("/api/login", apiHandler.LoginHandler)
	mux.HandleFunc("/api/logout", apiHandler.requireAuth(apiHandler.LogoutHandler))
	mux.HandleFunc("/api/meta", apiHandler.requireAuth(apiHandler.MetaHandler))
	mux.HandleFunc("/api/trades", apiHandler.requireAuth(apiHandler.TradesHandler))
	mux.HandleFunc("/api/report", apiHandler.requireAuth(apiHandler.ReportHandler))
	mux.HandleFunc("/api/settings", apiHandler.requireAuth(apiHandler.SettingsHandler))
	mux.HandleFunc("/api/insights", apiHandler.requireAuth(apiHandler.InsightsHandler))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting journal server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Journal server failed", zap.Error(err))
	}
}
