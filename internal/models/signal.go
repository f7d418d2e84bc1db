package models

// Signal kinds emitted by the backend signal generator.
const (
	SignalBuy  = "buy"
	SignalSell = "sell"
	SignalHold = "hold"
)

// AISignal is an advisory buy/sell/hold recommendation. Display only,
// there is no write path for signals from the client.
type AISignal struct {
	Symbol      string  `json:"symbol"`
	Market      string  `json:"market"`
	Signal      string  `json:"signal"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	GeneratedAt string  `json:"generated_at"`
}
