package models

// LeaderboardEntry is one ranked trader in the top-10 snapshot.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        int     `json:"user_id"`
	Username      string  `json:"username"`
	PlanType      string  `json:"plan_type"`
	ProfitPercent float64 `json:"profit_percent"`
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	Equity        float64 `json:"equity"`
}

// Rank is the current user's own standing among all participants.
type Rank struct {
	Rank              int     `json:"rank"`
	TotalParticipants int     `json:"total_participants"`
	ProfitPercent     float64 `json:"profit_percent"`
	Percentile        float64 `json:"percentile"`
}
