// Package poller drives the background refresh timers: the selected-symbol
// price every 30 seconds and the advisory signals every 2 minutes. The two
// entries are independent, with no coordination or mutual exclusion;
// overlapping refreshes are harmless because every store write is a
// full-state replace.
package poller

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tradesense-go/internal/config"
	"tradesense-go/internal/trading"
)

// Poller schedules the periodic store refreshes.
type Poller struct {
	cron    *cron.Cron
	trading *trading.Store
	cfg     *config.Polling
	logger  *zap.Logger
}

// NewPoller creates a poller over the trading store.
func NewPoller(store *trading.Store, cfg *config.Polling, logger *zap.Logger) *Poller {
	return &Poller{
		cron:    cron.New(),
		trading: store,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the refresh entries and starts the scheduler.
func (p *Poller) Start() error {
	if p.cfg.PriceInterval <= 0 || p.cfg.SignalInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive: price=%ds signal=%ds",
			p.cfg.PriceInterval, p.cfg.SignalInterval)
	}

	priceSpec := fmt.Sprintf("@every %ds", p.cfg.PriceInterval)
	if _, err := p.cron.AddFunc(priceSpec, func() {
		symbol := p.trading.State().SelectedSymbol
		p.logger.Debug("Refreshing price", zap.String("symbol", symbol))
		p.trading.FetchPrice(symbol)
	}); err != nil {
		return fmt.Errorf("failed to schedule price refresh: %w", err)
	}

	signalSpec := fmt.Sprintf("@every %ds", p.cfg.SignalInterval)
	if _, err := p.cron.AddFunc(signalSpec, func() {
		p.logger.Debug("Refreshing signals")
		p.trading.FetchSignals()
	}); err != nil {
		return fmt.Errorf("failed to schedule signal refresh: %w", err)
	}

	p.cron.Start()
	p.logger.Info("Poller started",
		zap.Int("price_interval_s", p.cfg.PriceInterval),
		zap.Int("signal_interval_s", p.cfg.SignalInterval))
	return nil
}

// Stop stops the scheduler. Entries already running finish on their own.
func (p *Poller) Stop() {
	p.cron.Stop()
	p.logger.Info("Poller stopped")
}

// Entries reports how many refresh jobs are registered.
func (p *Poller) Entries() int {
	return len(p.cron.Entries())
}
