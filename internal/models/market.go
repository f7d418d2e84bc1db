package models

// Markets served by the platform.
const (
	MarketUS      = "us"
	MarketCrypto  = "crypto"
	MarketMorocco = "morocco"
)

// Symbol universe per market. The dashboard only ever quotes these.
var (
	USSymbols      = []string{"AAPL", "TSLA", "GOOGL", "MSFT", "AMZN", "META", "NVDA"}
	CryptoSymbols  = []string{"BTC-USD", "ETH-USD", "SOL-USD", "BNB-USD"}
	MoroccoSymbols = []string{"IAM", "ATW", "BCP", "CIH", "LHM", "MNG"}
)

// AllSymbols returns the full fixed symbol universe.
func AllSymbols() []string {
	out := make([]string, 0, len(USSymbols)+len(CryptoSymbols)+len(MoroccoSymbols))
	out = append(out, USSymbols...)
	out = append(out, CryptoSymbols...)
	out = append(out, MoroccoSymbols...)
	return out
}

// PriceQuote is the latest price snapshot for one symbol.
type PriceQuote struct {
	Symbol        string  `json:"symbol"`
	Market        string  `json:"market"`
	Price         float64 `json:"price"`
	Open          float64 `json:"open,omitempty"`
	High          float64 `json:"high,omitempty"`
	Low           float64 `json:"low,omitempty"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume,omitempty"`
	LastUpdated   string  `json:"last_updated"`
}

// Candle is one OHLC bar of the historical series used by the chart.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
