package models

// Challenge status values as reported by the backend rule engine.
const (
	ChallengeActive = "active"
	ChallengePassed = "passed"
	ChallengeFailed = "failed"
)

// Challenge is a read-only snapshot of the user's funded-trading challenge.
// Balance, equity and PNL figures are computed server-side; the client never
// derives them locally and only replaces the snapshot wholesale.
type Challenge struct {
	ID             int     `json:"id"`
	UserID         int     `json:"user_id"`
	PlanType       string  `json:"plan_type"`
	InitialBalance float64 `json:"initial_balance"`
	CurrentBalance float64 `json:"current_balance"`
	Equity         float64 `json:"equity"`
	DailyPNL       float64 `json:"daily_pnl"`
	TotalPNL       float64 `json:"total_pnl"`
	Status         string  `json:"status"`
	ProfitPercent  float64 `json:"profit_percent"`
	StartDate      string  `json:"start_date,omitempty"`
	EndDate        string  `json:"end_date,omitempty"`
}
