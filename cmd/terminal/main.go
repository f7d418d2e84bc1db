package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/config"
	"tradesense-go/internal/logger"
	"tradesense-go/internal/poller"
	"tradesense-go/internal/session"
	"tradesense-go/internal/storage"
	"tradesense-go/internal/trading"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open durable client storage (token, preferences)
	store, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		log.Fatal("Failed to open client storage", zap.Error(err))
	}

	// Backend API client; the persisted token rides on every request.
	client := api.NewClient(&cfg.API, store, log)

	// Restore a persisted session, if any.
	sessionStore := session.NewStore(client, store, log)
	sessionStore.CheckAuth()

	state := sessionStore.State()
	if !state.IsAuthenticated {
		log.Warn("No valid session; log in through the UI before trading")
	} else {
		log.Info("Session restored",
			zap.String("username", state.User.Username),
			zap.String("role", state.User.Role))
	}

	tradingStore := trading.NewStore(client, log)

	// Log dashboard snapshots as they change.
	unsubscribe := tradingStore.Subscribe(func(s trading.State) {
		fields := []zap.Field{
			zap.String("symbol", s.SelectedSymbol),
			zap.Int("quotes", len(s.Prices)),
			zap.Int("positions", len(s.Positions)),
			zap.Int("signals", len(s.Signals)),
		}
		if s.ActiveChallenge != nil {
			fields = append(fields,
				zap.String("challenge_status", s.ActiveChallenge.Status),
				zap.Float64("equity", s.ActiveChallenge.Equity),
				zap.Float64("total_pnl", s.ActiveChallenge.TotalPNL))
		}
		log.Info("Dashboard state", fields...)
	})
	defer unsubscribe()

	// Initial snapshot before the pollers take over.
	tradingStore.FetchActiveChallenge()
	tradingStore.FetchPrices()
	tradingStore.FetchPositions()
	tradingStore.FetchSignals()

	p := poller.NewPoller(tradingStore, &cfg.Polling, log)
	if err := p.Start(); err != nil {
		log.Fatal("Failed to start poller", zap.Error(err))
	}

	// Run until interrupted.
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, stopping...")

	p.Stop()
	log.Info("Terminal client has been shut down.")
}
