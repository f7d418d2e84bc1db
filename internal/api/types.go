package api

import (
	"encoding/json"

	"tradesense-go/internal/models"
)

// envelope is the conventional response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// AuthResult is the credential-exchange payload from login and register.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// TradeRequest is the order submission body for /trading/execute.
type TradeRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Market   string  `json:"market"`
}

// TradeResult is the execution payload. ChallengeStatus may report a
// transition to passed/failed that the caller must surface to the user.
type TradeResult struct {
	Trade           *models.Trade `json:"trade"`
	ChallengeStatus string        `json:"challenge_status"`
	StatusReason    string        `json:"status_reason,omitempty"`
	NewBalance      float64       `json:"new_balance"`
}

// Order is the create-order payload. ApprovalURL is set for PayPal orders
// and means the user must approve the payment off-site before capture.
type Order struct {
	OrderID       string  `json:"order_id"`
	PaymentMethod string  `json:"payment_method"`
	ApprovalURL   string  `json:"approval_url,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// CaptureResult is the capture-order payload: the activated challenge plus
// the payment reference recorded against it.
type CaptureResult struct {
	Challenge        *models.Challenge `json:"challenge"`
	PaymentReference string            `json:"payment_reference"`
}

// VerifyResult is the payment-verification payload.
type VerifyResult struct {
	Verified  bool              `json:"verified"`
	Challenge *models.Challenge `json:"challenge,omitempty"`
}

// Leaderboard is the ranked top-traders snapshot.
type Leaderboard struct {
	Entries   []models.LeaderboardEntry `json:"leaderboard"`
	UpdatedAt string                    `json:"updated_at"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users       []models.User `json:"users"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

// ChallengePage is one page of the admin challenge listing.
type ChallengePage struct {
	Challenges  []models.Challenge `json:"challenges"`
	Total       int                `json:"total"`
	Pages       int                `json:"pages"`
	CurrentPage int                `json:"current_page"`
}

// Preferences is the user-preference update body.
type Preferences struct {
	Language string `json:"language,omitempty"`
	DarkMode *bool  `json:"dark_mode,omitempty"`
}
