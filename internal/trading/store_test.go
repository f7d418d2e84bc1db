package trading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/models"
)

// MockAPI is a mock implementation of the trading API slice.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) MarketData(market string) ([]models.PriceQuote, error) {
	args := m.Called(market)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceQuote), args.Error(1)
}

func (m *MockAPI) SymbolData(symbol string) (*models.PriceQuote, error) {
	args := m.Called(symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceQuote), args.Error(1)
}

func (m *MockAPI) Positions() ([]models.Position, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Position), args.Error(1)
}

func (m *MockAPI) ActiveChallenge() (*models.Challenge, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockAPI) ExecuteTrade(req api.TradeRequest) (*api.TradeResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.TradeResult), args.Error(1)
}

func (m *MockAPI) Signals(limit int) ([]models.AISignal, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AISignal), args.Error(1)
}

func (m *MockAPI) Historical(symbol, period, interval string) ([]models.Candle, error) {
	args := m.Called(symbol, period, interval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candle), args.Error(1)
}

func (m *MockAPI) LeaderboardTop10() (*api.Leaderboard, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Leaderboard), args.Error(1)
}

func setupTest(t *testing.T) (*Store, *MockAPI) {
	t.Helper()
	mockAPI := new(MockAPI)
	return NewStore(mockAPI, zap.NewNop()), mockAPI
}

func TestDefaults(t *testing.T) {
	store, _ := setupTest(t)

	state := store.State()
	assert.Equal(t, "BTC-USD", state.SelectedSymbol)
	assert.Equal(t, models.MarketCrypto, state.SelectedMarket)
	assert.Empty(t, state.Prices)
}

func TestFetchPrices_ReplacesMapWholesale(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("MarketData", "").Return([]models.PriceQuote{
		{Symbol: "AAPL", Market: models.MarketUS, Price: 233.1},
		{Symbol: "BTC-USD", Market: models.MarketCrypto, Price: 64000},
	}, nil).Once()
	store.FetchPrices()

	assert.Len(t, store.State().Prices, 2)

	// A later snapshot without AAPL must drop the stale entry.
	mockAPI.On("MarketData", "").Return([]models.PriceQuote{
		{Symbol: "BTC-USD", Market: models.MarketCrypto, Price: 64100},
	}, nil).Once()
	store.FetchPrices()

	state := store.State()
	assert.Len(t, state.Prices, 1)
	assert.Equal(t, 64100.0, state.Prices["BTC-USD"].Price)
	mockAPI.AssertExpectations(t)
}

func TestFetchPrices_FailureKeepsPreviousSnapshot(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("MarketData", "").Return([]models.PriceQuote{
		{Symbol: "BTC-USD", Price: 64000},
	}, nil).Once()
	store.FetchPrices()

	mockAPI.On("MarketData", "").Return(nil, errors.New("backend down")).Once()
	store.FetchPrices()

	state := store.State()
	assert.Len(t, state.Prices, 1)
	assert.Empty(t, state.Err, "background fetch failures are logged, not surfaced")
}

func TestFetchPrice_UpdatesSingleEntry(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("MarketData", "").Return([]models.PriceQuote{
		{Symbol: "BTC-USD", Price: 64000},
		{Symbol: "ETH-USD", Price: 3100},
	}, nil)
	store.FetchPrices()

	mockAPI.On("SymbolData", "ETH-USD").Return(&models.PriceQuote{Symbol: "ETH-USD", Price: 3250}, nil)
	store.FetchPrice("ETH-USD")

	state := store.State()
	assert.Equal(t, 3250.0, state.Prices["ETH-USD"].Price)
	assert.Equal(t, 64000.0, state.Prices["BTC-USD"].Price, "other entries untouched")
}

func TestFetchActiveChallenge_NotFoundIsEmptyState(t *testing.T) {
	store, mockAPI := setupTest(t)

	// Seed a cached challenge first.
	mockAPI.On("ActiveChallenge").Return(&models.Challenge{ID: 7, Status: models.ChallengeActive}, nil).Once()
	store.FetchActiveChallenge()
	assert.NotNil(t, store.State().ActiveChallenge)

	mockAPI.On("ActiveChallenge").Return(nil, &api.Error{StatusCode: 404, Message: "No active challenge found"}).Once()
	store.FetchActiveChallenge()

	state := store.State()
	assert.Nil(t, state.ActiveChallenge)
	assert.Empty(t, state.Err, "a 404 is a valid empty state, not an error")
}

func TestFetchActiveChallenge_OtherFailureStillClears(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("ActiveChallenge").Return(&models.Challenge{ID: 7}, nil).Once()
	store.FetchActiveChallenge()

	mockAPI.On("ActiveChallenge").Return(nil, &api.Error{StatusCode: 500, Message: "boom"}).Once()
	store.FetchActiveChallenge()

	assert.Nil(t, store.State().ActiveChallenge)
}

func TestExecuteTrade_SuccessRefetchesOnceEach(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("ExecuteTrade", api.TradeRequest{Symbol: "BTC-USD", Side: "buy", Quantity: 1, Market: "crypto"}).
		Return(&api.TradeResult{
			Trade:           &models.Trade{ID: 1, Symbol: "BTC-USD"},
			ChallengeStatus: models.ChallengeActive,
			NewBalance:      9357.5,
		}, nil)
	mockAPI.On("ActiveChallenge").Return(&models.Challenge{ID: 7, CurrentBalance: 9357.5}, nil)
	mockAPI.On("Positions").Return([]models.Position{{ID: 1, Symbol: "BTC-USD"}}, nil)

	result, err := store.ExecuteTrade("BTC-USD", "buy", 1, "crypto")

	assert.NoError(t, err)
	assert.Equal(t, models.ChallengeActive, result.ChallengeStatus)

	// Exactly one re-fetch each, regardless of trade outcome.
	mockAPI.AssertNumberOfCalls(t, "ActiveChallenge", 1)
	mockAPI.AssertNumberOfCalls(t, "Positions", 1)

	state := store.State()
	assert.Equal(t, 9357.5, state.ActiveChallenge.CurrentBalance)
	assert.Len(t, state.Positions, 1)
	assert.False(t, state.IsLoading)
}

func TestExecuteTrade_FailedChallengeTransitionStillRefetches(t *testing.T) {
	store, mockAPI := setupTest(t)

	// The order itself succeeded; the rule engine failed the challenge.
	// The caller gets the reason and the store still re-synchronizes.
	mockAPI.On("ExecuteTrade", mock.Anything).Return(&api.TradeResult{
		Trade:           &models.Trade{ID: 2},
		ChallengeStatus: models.ChallengeFailed,
		StatusReason:    "Total loss limit breached: -10.2%",
	}, nil)
	mockAPI.On("ActiveChallenge").Return(nil, &api.Error{StatusCode: 404, Message: "No active challenge found"})
	mockAPI.On("Positions").Return([]models.Position{}, nil)

	result, err := store.ExecuteTrade("BTC-USD", "buy", 1, "crypto")

	assert.NoError(t, err)
	assert.Equal(t, models.ChallengeFailed, result.ChallengeStatus)
	assert.Contains(t, result.StatusReason, "Total loss limit")

	mockAPI.AssertNumberOfCalls(t, "ActiveChallenge", 1)
	mockAPI.AssertNumberOfCalls(t, "Positions", 1)
	assert.Nil(t, store.State().ActiveChallenge)
}

func TestExecuteTrade_FailureSetsErrorAndSkipsRefetch(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("ExecuteTrade", mock.Anything).
		Return(nil, &api.Error{StatusCode: 400, Message: "Insufficient balance"})

	result, err := store.ExecuteTrade("AAPL", "buy", 9999, "us")

	assert.Error(t, err)
	assert.Nil(t, result)

	state := store.State()
	assert.Equal(t, "Insufficient balance", state.Err)
	assert.False(t, state.IsLoading)
	mockAPI.AssertNotCalled(t, "ActiveChallenge")
	mockAPI.AssertNotCalled(t, "Positions")
}

func TestFetchSignals(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("Signals", 10).Return([]models.AISignal{
		{Symbol: "NVDA", Signal: models.SignalBuy, Confidence: 78.5, Reasoning: "Strong momentum: +3.40%"},
	}, nil)
	store.FetchSignals()

	state := store.State()
	assert.Len(t, state.Signals, 1)
	assert.Equal(t, models.SignalBuy, state.Signals[0].Signal)
}

func TestSetSelection(t *testing.T) {
	store, mockAPI := setupTest(t)

	store.SetSelectedSymbol("IAM")
	store.SetSelectedMarket(models.MarketMorocco)

	state := store.State()
	assert.Equal(t, "IAM", state.SelectedSymbol)
	assert.Equal(t, models.MarketMorocco, state.SelectedMarket)
	// Pure local state; no network side effects.
	mockAPI.AssertNotCalled(t, "SymbolData", mock.Anything)
}

func TestFetchLeaderboard(t *testing.T) {
	store, mockAPI := setupTest(t)

	mockAPI.On("LeaderboardTop10").Return(&api.Leaderboard{
		Entries: []models.LeaderboardEntry{
			{Rank: 1, Username: "fatima", ProfitPercent: 9.4},
			{Rank: 2, Username: "youssef", ProfitPercent: 7.1},
		},
	}, nil)
	store.FetchLeaderboard()

	state := store.State()
	assert.Len(t, state.Leaderboard, 2)
	assert.Equal(t, "fatima", state.Leaderboard[0].Username)
}
