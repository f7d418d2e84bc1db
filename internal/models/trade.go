package models

// Trade sides accepted by the execution endpoint.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade is a single executed order as echoed back by the backend.
type Trade struct {
	ID         int     `json:"id"`
	Symbol     string  `json:"symbol"`
	Market     string  `json:"market"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price,omitempty"`
	Profit     float64 `json:"profit,omitempty"`
	Status     string  `json:"status"`
	ExecutedAt string  `json:"executed_at,omitempty"`
}
