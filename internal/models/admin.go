package models

// AdminStats is the aggregate view shown on the admin console.
type AdminStats struct {
	TotalUsers       int     `json:"total_users"`
	ActiveChallenges int     `json:"active_challenges"`
	PassedChallenges int     `json:"passed_challenges"`
	FailedChallenges int     `json:"failed_challenges"`
	TotalTrades      int     `json:"total_trades"`
	PassRate         float64 `json:"pass_rate"`
}
