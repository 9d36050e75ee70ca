package models

import "time"

// MarketEventType classifies a MarketEvent's payload shape.
type MarketEventType string

const (
	MarketEventTick         MarketEventType = "tick"
	MarketEventBar          MarketEventType = "bar"
	MarketEventVolatility   MarketEventType = "volatility"
	MarketEventOptionChain  MarketEventType = "option_chain"
)

// MarketEvent is a timestamped notification of market data. Payload is an
// opaque, event-type-specific mapping; for TICK events it is expected to
// carry at least one of "price", "close", "last", "mid", or a "bid"/"ask"
// pair.
type MarketEvent struct {
	Type      MarketEventType
	Symbol    string
	Timestamp time.Time
	Payload   map[string]any
}

// VolatilitySnapshot carries current volatility metrics for a symbol,
// consumed by the advisory service's options-strategy analysis.
type VolatilitySnapshot struct {
	Symbol         string
	ImpliedVol     float64
	HistoricalVol  float64
	VolRank        float64
	VIXLevel       float64
	Timestamp      time.Time
}

// OptionChainSummary summarizes options activity for a symbol.
type OptionChainSummary struct {
	Symbol           string
	ExpirationDate   string
	PutCallRatio     float64
	MaxPain          float64
	TotalVolume      int
	TotalOpenInterest int
	Timestamp        time.Time
}
