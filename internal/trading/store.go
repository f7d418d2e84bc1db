// Package trading holds the dashboard state: price quotes, open positions
// and the active challenge snapshot. The backend is the sole authority for
// PNL, equity and pass/fail status; this store never derives any of them,
// it only orchestrates re-fetch ordering after a mutation.
package trading

import (
	"sync"

	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/models"
)

// Defaults for the dashboard selection.
const (
	DefaultSymbol = "BTC-USD"
	DefaultMarket = models.MarketCrypto

	// signalLimit caps how many advisory signals the dashboard shows.
	signalLimit = 10
)

// API is the slice of the backend client the trading store needs.
type API interface {
	MarketData(market string) ([]models.PriceQuote, error)
	SymbolData(symbol string) (*models.PriceQuote, error)
	Positions() ([]models.Position, error)
	ActiveChallenge() (*models.Challenge, error)
	ExecuteTrade(req api.TradeRequest) (*api.TradeResult, error)
	Signals(limit int) ([]models.AISignal, error)
	Historical(symbol, period, interval string) ([]models.Candle, error)
	LeaderboardTop10() (*api.Leaderboard, error)
}

// State is an immutable snapshot of the trading UI state. Collections are
// replaced wholesale on refresh, never mutated in place, so snapshots held
// by subscribers stay stable.
type State struct {
	Prices          map[string]models.PriceQuote
	Positions       []models.Position
	ActiveChallenge *models.Challenge
	Signals         []models.AISignal
	Candles         []models.Candle
	Leaderboard     []models.LeaderboardEntry
	SelectedSymbol  string
	SelectedMarket  string
	IsLoading       bool
	Err             string
}

// Store is the observable trading state container.
type Store struct {
	mu     sync.RWMutex
	api    API
	logger *zap.Logger

	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates a trading store with the default symbol selection.
func NewStore(backend API, logger *zap.Logger) *Store {
	return &Store{
		api:    backend,
		logger: logger,
		state: State{
			Prices:         make(map[string]models.PriceQuote),
			SelectedSymbol: DefaultSymbol,
			SelectedMarket: DefaultMarket,
		},
		subs: make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every state change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// FetchPrices replaces the entire price mapping with a fresh snapshot for
// the fixed symbol universe. Failures are logged and leave the previous
// snapshot in place.
func (s *Store) FetchPrices() {
	prices, err := s.api.MarketData("")
	if err != nil {
		s.logger.Error("Failed to fetch prices", zap.Error(err))
		return
	}

	priceMap := make(map[string]models.PriceQuote, len(prices))
	for _, p := range prices {
		priceMap[p.Symbol] = p
	}
	s.mutate(func(st *State) { st.Prices = priceMap })
}

// FetchPrice refreshes exactly one entry in the price mapping. Used for the
// selected symbol on the polling interval and on symbol change.
func (s *Store) FetchPrice(symbol string) {
	quote, err := s.api.SymbolData(symbol)
	if err != nil {
		s.logger.Error("Failed to fetch price", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	s.mutate(func(st *State) {
		next := make(map[string]models.PriceQuote, len(st.Prices)+1)
		for k, v := range st.Prices {
			next[k] = v
		}
		next[symbol] = *quote
		st.Prices = next
	})
}

// FetchPositions replaces the open-positions list wholesale.
func (s *Store) FetchPositions() {
	positions, err := s.api.Positions()
	if err != nil {
		s.logger.Error("Failed to fetch positions", zap.Error(err))
		return
	}
	s.mutate(func(st *State) { st.Positions = positions })
}

// FetchActiveChallenge fetches the single active challenge. A 404 means
// "no active challenge" and is a valid empty state, not an error; any other
// failure is logged but still clears the cached challenge.
func (s *Store) FetchActiveChallenge() {
	challenge, err := s.api.ActiveChallenge()
	if err != nil {
		if !api.IsNotFound(err) {
			s.logger.Error("Failed to fetch challenge", zap.Error(err))
		}
		s.mutate(func(st *State) { st.ActiveChallenge = nil })
		return
	}
	s.mutate(func(st *State) { st.ActiveChallenge = challenge })
}

// ExecuteTrade submits an order. On success the challenge and positions are
// re-fetched once each, in that order, so server-computed balances land in
// the snapshot; the raw result is returned because it may embed a
// passed/failed transition the caller must surface. On failure the error
// message is cached and the error returned.
func (s *Store) ExecuteTrade(symbol, side string, quantity float64, market string) (*api.TradeResult, error) {
	s.mutate(func(st *State) { st.IsLoading = true; st.Err = "" })

	result, err := s.api.ExecuteTrade(api.TradeRequest{
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Market:   market,
	})
	if err != nil {
		msg := api.ErrorMessage(err, "Trade execution failed")
		s.mutate(func(st *State) { st.IsLoading = false; st.Err = msg })
		return nil, err
	}

	s.FetchActiveChallenge()
	s.FetchPositions()

	s.mutate(func(st *State) { st.IsLoading = false })
	return result, nil
}

// FetchSignals refreshes the advisory signal list.
func (s *Store) FetchSignals() {
	signals, err := s.api.Signals(signalLimit)
	if err != nil {
		s.logger.Error("Failed to fetch signals", zap.Error(err))
		return
	}
	s.mutate(func(st *State) { st.Signals = signals })
}

// FetchHistory refreshes the candle series for the chart.
func (s *Store) FetchHistory(symbol, period, interval string) {
	candles, err := s.api.Historical(symbol, period, interval)
	if err != nil {
		s.logger.Error("Failed to fetch historical data", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	s.mutate(func(st *State) { st.Candles = candles })
}

// FetchLeaderboard refreshes the ranked trader snapshot.
func (s *Store) FetchLeaderboard() {
	board, err := s.api.LeaderboardTop10()
	if err != nil {
		s.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		return
	}
	s.mutate(func(st *State) { st.Leaderboard = board.Entries })
}

// SetSelectedSymbol updates the selection. Pure local state; dependent
// fetches are triggered by the caller or the poller.
func (s *Store) SetSelectedSymbol(symbol string) {
	s.mutate(func(st *State) { st.SelectedSymbol = symbol })
}

// SetSelectedMarket updates the market selection. Pure local state.
func (s *Store) SetSelectedMarket(market string) {
	s.mutate(func(st *State) { st.SelectedMarket = market })
}

// ClearError clears the last error message only.
func (s *Store) ClearError() {
	s.mutate(func(st *State) { st.Err = "" })
}
