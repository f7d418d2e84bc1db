package models

// Position is an open simulated holding in one symbol, refreshed alongside
// the challenge snapshot after every trade.
type Position struct {
	ID            int     `json:"id"`
	Symbol        string  `json:"symbol"`
	Market        string  `json:"market"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPNL float64 `json:"unrealized_pnl"`
	OpenedAt      string  `json:"opened_at,omitempty"`
}
