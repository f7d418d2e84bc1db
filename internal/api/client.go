package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tradesense-go/internal/config"
	"tradesense-go/internal/models"
)

// TokenProvider supplies the persisted bearer token for outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenProvider interface {
	Token() string
}

// Client is the thin HTTP wrapper over the TradeSense backend. It attaches
// the bearer token and a request id to every call and surfaces every failure
// directly to the caller: no retry, no backoff, no circuit breaking.
type Client struct {
	client  *resty.Client
	tokens  TokenProvider
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewClient creates a backend API client.
func NewClient(cfg *config.API, tokens TokenProvider, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second; keeps polling polite.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	c := &Client{
		client:  client,
		tokens:  tokens,
		logger:  logger,
		limiter: limiter,
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		if token := c.tokens.Token(); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
		return nil
	})

	return c
}

// do executes one request and decodes the response envelope into out.
// A transport failure, a non-2xx status or success=false all end the attempt;
// there is deliberately no retry loop here.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}

	c.logger.Debug("Executing request", zap.String("method", method), zap.String("path", path))
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.IsError() {
			return &Error{StatusCode: resp.StatusCode(), Message: resp.Status()}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.IsError() || !env.Success {
		msg := env.Err
		if msg == "" {
			msg = resp.Status()
		}
		return &Error{StatusCode: resp.StatusCode(), Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a user and an access token.
func (c *Client) Login(email, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(context.Background(), http.MethodPost, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and returns the user and an access token.
func (c *Client) Register(email, username, password string) (*AuthResult, error) {
	var result AuthResult
	body := map[string]string{"email": email, "username": username, "password": password}
	if err := c.do(context.Background(), http.MethodPost, "/auth/register", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me validates the current session and returns the authenticated user.
func (c *Client) Me() (*models.User, error) {
	var payload struct {
		User *models.User `json:"user"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// UpdatePreferences pushes language/dark-mode changes to the user record.
func (c *Client) UpdatePreferences(prefs Preferences) (*models.User, error) {
	var payload struct {
		User *models.User `json:"user"`
	}
	if err := c.do(context.Background(), http.MethodPatch, "/auth/update-preferences", prefs, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// MarketData fetches the price snapshot for every symbol, optionally
// filtered to one market.
func (c *Client) MarketData(market string) ([]models.PriceQuote, error) {
	path := "/trading/market-data"
	if market != "" {
		path += "?market=" + url.QueryEscape(market)
	}
	var payload struct {
		Prices []models.PriceQuote `json:"prices"`
	}
	if err := c.do(context.Background(), http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Prices, nil
}

// SymbolData fetches the price snapshot for one symbol.
func (c *Client) SymbolData(symbol string) (*models.PriceQuote, error) {
	var payload struct {
		Price *models.PriceQuote `json:"price"`
	}
	path := "/trading/market-data/" + url.PathEscape(symbol)
	if err := c.do(context.Background(), http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Price, nil
}

// Historical fetches the OHLC candle series used by the chart.
func (c *Client) Historical(symbol, period, interval string) ([]models.Candle, error) {
	var payload struct {
		Candles []models.Candle `json:"candles"`
	}
	path := fmt.Sprintf("/trading/historical/%s?period=%s&interval=%s",
		url.PathEscape(symbol), url.QueryEscape(period), url.QueryEscape(interval))
	if err := c.do(context.Background(), http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Candles, nil
}

// Signals fetches the latest advisory AI signals.
func (c *Client) Signals(limit int) ([]models.AISignal, error) {
	var payload struct {
		Signals []models.AISignal `json:"signals"`
	}
	path := "/trading/signals?limit=" + strconv.Itoa(limit)
	if err := c.do(context.Background(), http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Signals, nil
}

// Positions fetches the open positions for the current user.
func (c *Client) Positions() ([]models.Position, error) {
	var payload struct {
		Positions []models.Position `json:"positions"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/trading/positions", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Positions, nil
}

// ExecuteTrade submits an order. The result may embed a challenge-status
// transition that the caller must interpret.
func (c *Client) ExecuteTrade(req TradeRequest) (*TradeResult, error) {
	var result TradeResult
	if err := c.do(context.Background(), http.MethodPost, "/trading/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ActiveChallenge fetches the single active challenge for the current user.
// A 404 comes back as an *Error the caller can test with IsNotFound.
func (c *Client) ActiveChallenge() (*models.Challenge, error) {
	var payload struct {
		Challenge *models.Challenge `json:"challenge"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/challenges/active", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Challenge, nil
}

// Plans fetches the purchasable challenge tiers.
func (c *Client) Plans() ([]models.Plan, error) {
	var payload struct {
		Plans []models.Plan `json:"plans"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/challenges/plans", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Plans, nil
}

// MyChallenges fetches all challenges ever held by the current user.
func (c *Client) MyChallenges() ([]models.Challenge, error) {
	var payload struct {
		Challenges []models.Challenge `json:"challenges"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/challenges/my-challenges", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Challenges, nil
}

// CreateOrder starts the checkout for a plan. PayPal orders return an
// approval URL the user must visit before capture.
func (c *Client) CreateOrder(planType, paymentMethod string) (*Order, error) {
	var order Order
	body := map[string]string{"plan_type": planType, "payment_method": paymentMethod}
	if err := c.do(context.Background(), http.MethodPost, "/payment/create-order", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder finalizes a payment and activates the challenge.
func (c *Client) CaptureOrder(orderID, paymentMethod, planType string) (*CaptureResult, error) {
	var result CaptureResult
	body := map[string]string{
		"order_id":       orderID,
		"payment_method": paymentMethod,
		"plan_type":      planType,
	}
	if err := c.do(context.Background(), http.MethodPost, "/payment/capture-order", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyPayment checks whether a payment reference activated a challenge.
func (c *Client) VerifyPayment(reference string) (*VerifyResult, error) {
	var result VerifyResult
	path := "/payment/verify/" + url.PathEscape(reference)
	if err := c.do(context.Background(), http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LeaderboardTop10 fetches the ranked trader snapshot.
func (c *Client) LeaderboardTop10() (*Leaderboard, error) {
	var board Leaderboard
	if err := c.do(context.Background(), http.MethodGet, "/leaderboard/top-10", nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// MyRank fetches the current user's own standing.
func (c *Client) MyRank() (*models.Rank, error) {
	var rank models.Rank
	if err := c.do(context.Background(), http.MethodGet, "/leaderboard/my-rank", nil, &rank); err != nil {
		return nil, err
	}
	return &rank, nil
}

// AdminStats fetches the aggregate numbers for the admin console.
// Role enforcement happens server-side.
func (c *Client) AdminStats() (*models.AdminStats, error) {
	var stats models.AdminStats
	if err := c.do(context.Background(), http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminUsers fetches one page of the user listing.
func (c *Client) AdminUsers(page, perPage int) (*UserPage, error) {
	var result UserPage
	path := fmt.Sprintf("/admin/users?page=%d&per_page=%d", page, perPage)
	if err := c.do(context.Background(), http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AdminChallenges fetches one page of the challenge listing, optionally
// filtered by status.
func (c *Client) AdminChallenges(status string, page, perPage int) (*ChallengePage, error) {
	var result ChallengePage
	path := fmt.Sprintf("/admin/challenges?page=%d&per_page=%d", page, perPage)
	if status != "" {
		path += "&status=" + url.QueryEscape(status)
	}
	if err := c.do(context.Background(), http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateChallengeStatus manually overrides a challenge's status.
func (c *Client) UpdateChallengeStatus(challengeID int, status string) (*models.Challenge, error) {
	var payload struct {
		Challenge *models.Challenge `json:"challenge"`
	}
	path := fmt.Sprintf("/admin/challenges/%d/status", challengeID)
	body := map[string]string{"status": status}
	if err := c.do(context.Background(), http.MethodPatch, path, body, &payload); err != nil {
		return nil, err
	}
	return payload.Challenge, nil
}

// UpdateUserRole changes a user's role. Superadmin only, enforced server-side.
func (c *Client) UpdateUserRole(userID int, role string) (*models.User, error) {
	var payload struct {
		User *models.User `json:"user"`
	}
	path := fmt.Sprintf("/admin/superadmin/users/%d/role", userID)
	body := map[string]string{"role": role}
	if err := c.do(context.Background(), http.MethodPatch, path, body, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

// UpdatePayPalSettings stores new PayPal credentials. Superadmin only.
func (c *Client) UpdatePayPalSettings(clientID, clientSecret string) error {
	body := map[string]string{"client_id": clientID, "client_secret": clientSecret}
	return c.do(context.Background(), http.MethodPut, "/admin/superadmin/settings/paypal", body, nil)
}
