package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/checkout"
	"tradesense-go/internal/guard"
	"tradesense-go/internal/models"
	"tradesense-go/internal/prefs"
	"tradesense-go/internal/session"
	"tradesense-go/internal/trading"
)

// UIHandler holds dependencies for the UI endpoints.
type UIHandler struct {
	log     *zap.Logger
	session *session.Store
	trading *trading.Store
	prefs   *prefs.Store
	flow    *checkout.Flow
	client  *api.Client
}

// NewUIHandler creates a new UIHandler.
func NewUIHandler(log *zap.Logger, sess *session.Store, trad *trading.Store,
	pref *prefs.Store, flow *checkout.Flow, client *api.Client) *UIHandler {
	return &UIHandler{log: log, session: sess, trading: trad, prefs: pref, flow: flow, client: client}
}

type pageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Err     string `json:"error,omitempty"`
}

func (h *UIHandler) writeJSON(w http.ResponseWriter, status int, body pageResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *UIHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, pageResponse{Success: false, Err: msg})
}

// redirectFor maps a guard decision to its redirect target.
func redirectFor(d guard.Decision) string {
	switch d {
	case guard.RedirectLogin:
		return "/login"
	case guard.RedirectAdminLogin:
		return "/admin/login"
	case guard.RedirectDashboard:
		return "/dashboard"
	}
	return "/"
}

// Guarded wraps a page with the role guard; non-Grant decisions become
// HTTP redirects.
func (h *UIHandler) Guarded(requiredRole string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := h.session.State()
		role := ""
		if state.User != nil {
			role = state.User.Role
		}
		decision := guard.Evaluate(state.IsAuthenticated, role, requiredRole)
		if decision != guard.Grant {
			http.Redirect(w, r, redirectFor(decision), http.StatusFound)
			return
		}
		next(w, r)
	}
}

// RequireAuth wraps pages that need a session but no particular role.
func (h *UIHandler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.session.State().IsAuthenticated {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

// Landing renders the public landing page state.
func (h *UIHandler) Landing(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()
	ui := h.prefs.State()
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"authenticated": state.IsAuthenticated,
		"language":      ui.Language,
		"direction":     ui.Direction(),
		"dark_mode":     ui.DarkMode,
	}})
}

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// Login handles the login form submission.
func (h *UIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.session.Login(creds.Email, creds.Password)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, h.session.State().Err)
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"user": user}})
}

// Register handles the registration form submission.
func (h *UIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.session.Register(creds.Email, creds.Username, creds.Password)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, h.session.State().Err)
		return
	}
	h.writeJSON(w, http.StatusCreated, pageResponse{Success: true, Data: map[string]any{"user": user}})
}

// Logout clears the session.
func (h *UIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Message: "Logged out"})
}

// Session returns the current session snapshot.
func (h *UIHandler) Session(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"authenticated": state.IsAuthenticated,
		"user":          state.User,
	}})
}

// Dashboard refreshes and renders the trading dashboard state.
func (h *UIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.trading.FetchActiveChallenge()
	h.trading.FetchPositions()
	h.trading.FetchPrices()
	h.trading.FetchSignals()

	state := h.trading.State()
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"challenge":       state.ActiveChallenge,
		"positions":       state.Positions,
		"prices":          state.Prices,
		"signals":         state.Signals,
		"selected_symbol": state.SelectedSymbol,
		"selected_market": state.SelectedMarket,
	}})
}

type tradeForm struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Market   string  `json:"market"`
}

// Trade submits an order. A challenge transition embedded in the result
// replaces the generic success message with the rule engine's reason.
func (h *UIHandler) Trade(w http.ResponseWriter, r *http.Request) {
	var form tradeForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.trading.ExecuteTrade(form.Symbol, form.Side, form.Quantity, form.Market)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, h.trading.State().Err)
		return
	}

	message := "Trade executed successfully"
	if result.ChallengeStatus != models.ChallengeActive && result.StatusReason != "" {
		message = result.StatusReason
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Message: message, Data: map[string]any{
		"trade":            result.Trade,
		"challenge_status": result.ChallengeStatus,
		"new_balance":      result.NewBalance,
	}})
}

type selectionForm struct {
	Symbol string `json:"symbol,omitempty"`
	Market string `json:"market,omitempty"`
}

// Select updates the symbol/market selection and refreshes the new symbol.
func (h *UIHandler) Select(w http.ResponseWriter, r *http.Request) {
	var form selectionForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if form.Market != "" {
		h.trading.SetSelectedMarket(form.Market)
	}
	if form.Symbol != "" {
		h.trading.SetSelectedSymbol(form.Symbol)
		h.trading.FetchPrice(form.Symbol)
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true})
}

// Chart returns the candle series for the chart.
func (h *UIHandler) Chart(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = h.trading.State().SelectedSymbol
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1mo"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	h.trading.FetchHistory(symbol, period, interval)
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"symbol":  symbol,
		"candles": h.trading.State().Candles,
	}})
}

// Pricing renders the plan catalog. The backend copy wins when reachable so
// price changes show up without a client update; the built-in catalog keeps
// the page rendering offline.
func (h *UIHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	plans, err := h.client.Plans()
	if err != nil {
		h.log.Warn("Falling back to built-in plan catalog", zap.Error(err))
		plans = checkout.Catalog()
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"plans": plans,
	}})
}

type checkoutForm struct {
	PlanType      string `json:"plan_type"`
	PaymentMethod string `json:"payment_method"`
}

// Checkout starts a purchase. PayPal responses carry the approval URL the
// browser must follow off-site.
func (h *UIHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var form checkoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if form.PaymentMethod == "" {
		form.PaymentMethod = checkout.MethodMock
	}

	result, err := h.flow.Purchase(form.PlanType, form.PaymentMethod)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorMessage(err, "Payment failed"))
		return
	}

	if result.ApprovalURL != "" {
		h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
			"approval_url": result.ApprovalURL,
		}})
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{
		Success: true,
		Message: "Payment successful! Challenge activated.",
		Data:    map[string]any{"challenge": result.Challenge},
	})
}

// PaymentCallback completes a PayPal purchase after the off-site approval.
// The provider appends the order id as the token query parameter.
func (h *UIHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	challenge, err := h.flow.CompleteCallback(token)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, api.ErrorMessage(err, "Payment processing failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{
		Success: true,
		Message: "Payment successful! Challenge activated.",
		Data:    map[string]any{"challenge": challenge},
	})
}

// Leaderboard renders the ranked trader snapshot. Logged-in visitors also
// see their own rank, which may fall outside the top ten.
func (h *UIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	h.trading.FetchLeaderboard()
	data := map[string]any{
		"leaderboard": h.trading.State().Leaderboard,
	}
	if h.session.State().IsAuthenticated {
		if rank, err := h.client.MyRank(); err == nil {
			data["my_rank"] = rank
		}
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: data})
}

// Challenges renders the visitor's challenge history.
func (h *UIHandler) Challenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.client.MyChallenges()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to load challenges"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"challenges": challenges,
	}})
}

// VerifyPayment re-checks a payment reference against the provider.
func (h *UIHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "Payment reference is required")
		return
	}

	result, err := h.client.VerifyPayment(reference)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Payment verification failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"payment": result}})
}

// LoginPage and AdminLoginPage render the login surfaces.
func (h *UIHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"page": "login"}})
}

func (h *UIHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"page": "admin-login"}})
}

// AdminStats renders the admin console numbers. Role-gated here for the
// page and again server-side for the data.
func (h *UIHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client.AdminStats()
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to load admin stats"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"stats": stats}})
}

// AdminUsers renders one page of the user listing.
func (h *UIHandler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	users, err := h.client.AdminUsers(page, 20)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to load users"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"users": users}})
}

// AdminChallenges renders one page of the challenge listing, optionally
// filtered by status.
func (h *UIHandler) AdminChallenges(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	status := r.URL.Query().Get("status")

	challenges, err := h.client.AdminChallenges(status, page, 20)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to load challenges"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"challenges": challenges}})
}

type statusForm struct {
	Status string `json:"status"`
}

// UpdateChallengeStatus lets an admin force a challenge into a new status.
func (h *UIHandler) UpdateChallengeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}
	var form statusForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	challenge, err := h.client.UpdateChallengeStatus(id, form.Status)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to update challenge"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"challenge": challenge}})
}

type roleForm struct {
	Role string `json:"role"`
}

// UpdateUserRole promotes or demotes a user. Superadmin only.
func (h *UIHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var form roleForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.client.UpdateUserRole(id, form.Role)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to update role"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{"user": user}})
}

type paypalSettingsForm struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// UpdatePayPalSettings stores new PayPal credentials. Superadmin only.
func (h *UIHandler) UpdatePayPalSettings(w http.ResponseWriter, r *http.Request) {
	var form paypalSettingsForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if form.ClientID == "" || form.ClientSecret == "" {
		h.writeError(w, http.StatusBadRequest, "Client ID and Secret are required")
		return
	}

	if err := h.client.UpdatePayPalSettings(form.ClientID, form.ClientSecret); err != nil {
		h.writeError(w, http.StatusBadGateway, api.ErrorMessage(err, "Failed to update settings"))
		return
	}
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Message: "PayPal credentials updated successfully"})
}

type prefsForm struct {
	Language    *string `json:"language,omitempty"`
	DarkMode    *bool   `json:"dark_mode,omitempty"`
	SidebarOpen *bool   `json:"sidebar_open,omitempty"`
}

// Preferences reads the persisted UI preferences.
func (h *UIHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	state := h.prefs.State()
	h.writeJSON(w, http.StatusOK, pageResponse{Success: true, Data: map[string]any{
		"language":     state.Language,
		"direction":    state.Direction(),
		"dark_mode":    state.DarkMode,
		"sidebar_open": state.SidebarOpen,
	}})
}

// UpdatePreferences writes UI preference changes.
func (h *UIHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var form prefsForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if form.Language != nil {
		if err := h.prefs.SetLanguage(*form.Language); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if form.DarkMode != nil {
		h.prefs.SetDarkMode(*form.DarkMode)
	}
	if form.SidebarOpen != nil {
		h.prefs.SetSidebarOpen(*form.SidebarOpen)
	}

	// Mirror language and theme onto the account profile when logged in.
	// The local copy is authoritative for rendering; the sync is best-effort.
	if h.session.State().IsAuthenticated && (form.Language != nil || form.DarkMode != nil) {
		payload := api.Preferences{DarkMode: form.DarkMode}
		if form.Language != nil {
			payload.Language = *form.Language
		}
		if _, err := h.client.UpdatePreferences(payload); err != nil {
			h.log.Warn("Failed to sync preferences to account", zap.Error(err))
		}
	}

	h.Preferences(w, r)
}
