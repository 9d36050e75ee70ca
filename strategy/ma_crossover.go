package strategy

import (
	"math"
	"sync"
	"time"

	"github.com/alexherrero/tradepipe/models"
)

const signalCooldown = 5 * time.Minute

type pricePoint struct {
	price     float64
	timestamp time.Time
}

// MACrossover emits BUY/SELL signals when the short moving average
// crosses the long moving average, replicating the reference strategy's
// extraction/crossover/confidence/cooldown/sizing algorithm exactly.
type MACrossover struct {
	symbols       []string
	shortPeriod   int
	longPeriod    int
	minConfidence float64

	mu             sync.Mutex
	history        map[string][]pricePoint
	lastSignalTime map[string]time.Time
}

// NewMACrossover builds the strategy for the given symbols. shortPeriod
// must be less than longPeriod.
func NewMACrossover(symbols []string, shortPeriod, longPeriod int, minConfidence float64) *MACrossover {
	return &MACrossover{
		symbols:        symbols,
		shortPeriod:    shortPeriod,
		longPeriod:     longPeriod,
		minConfidence:  minConfidence,
		history:        make(map[string][]pricePoint),
		lastSignalTime: make(map[string]time.Time),
	}
}

func (s *MACrossover) Name() string     { return "MA_Crossover" }
func (s *MACrossover) Symbols() []string { return s.symbols }

func (s *MACrossover) isRelevant(symbol string) bool {
	for _, sym := range s.symbols {
		if sym == symbol {
			return true
		}
	}
	return false
}

func (s *MACrossover) OnMarketEvent(e models.MarketEvent) []models.TradeSignal {
	if e.Type != models.MarketEventTick || !s.isRelevant(e.Symbol) {
		return nil
	}

	price, ok := extractPrice(e.Payload)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hist := append(s.history[e.Symbol], pricePoint{price: price, timestamp: e.Timestamp})
	maxHistory := s.longPeriod + 10
	if len(hist) > maxHistory {
		hist = hist[len(hist)-maxHistory:]
	}
	s.history[e.Symbol] = hist

	if len(hist) < s.longPeriod+1 {
		return nil
	}

	shortMA := average(hist, s.shortPeriod)
	longMA := average(hist, s.longPeriod)
	prevHist := hist[:len(hist)-1]
	prevShortMA := average(prevHist, s.shortPeriod)
	prevLongMA := average(prevHist, s.longPeriod)

	sig := s.detectCrossover(e.Symbol, price, shortMA, longMA, prevShortMA, prevLongMA, e.Timestamp)
	if sig == nil {
		return nil
	}
	return []models.TradeSignal{*sig}
}

func average(hist []pricePoint, period int) float64 {
	window := hist[len(hist)-period:]
	var sum float64
	for _, p := range window {
		sum += p.price
	}
	return sum / float64(period)
}

// extractPrice follows the field precedence price, close, last, mid,
// falling back to the bid/ask midpoint when both are positive.
func extractPrice(payload map[string]any) (float64, bool) {
	for _, field := range []string{"price", "close", "last", "mid"} {
		if v, ok := payload[field]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	bid, bidOK := toFloat(payload["bid"])
	ask, askOK := toFloat(payload["ask"])
	if bidOK && askOK && bid > 0 && ask > 0 {
		return (bid + ask) / 2, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (s *MACrossover) detectCrossover(symbol string, price, shortMA, longMA, prevShortMA, prevLongMA float64, ts time.Time) *models.TradeSignal {
	if last, ok := s.lastSignalTime[symbol]; ok && ts.Sub(last) < signalCooldown {
		return nil
	}

	var side models.Side
	var crossoverType string
	switch {
	case prevShortMA <= prevLongMA && shortMA > longMA:
		side, crossoverType = models.SideBuy, "bullish"
	case prevShortMA >= prevLongMA && shortMA < longMA:
		side, crossoverType = models.SideSell, "bearish"
	default:
		return nil
	}

	confidence := signalConfidence(price, shortMA, longMA, crossoverType)
	if confidence < s.minConfidence {
		return nil
	}

	qty := positionSize(confidence)
	sig, err := models.NewTradeSignal(models.TradeSignalParams{
		Symbol:       symbol,
		Side:         side,
		Qty:          qty,
		OrderType:    models.OrderTypeMarket,
		Confidence:   confidence,
		Source:       models.SourceStrategy,
		StrategyName: s.Name(),
		Metadata: map[string]any{
			"short_ma":       shortMA,
			"long_ma":        longMA,
			"price":          price,
			"crossover_type": crossoverType,
		},
	})
	if err != nil {
		return nil
	}

	s.lastSignalTime[symbol] = ts
	return &sig
}

// signalConfidence computes base 0.5 plus a gap factor (capped 0.3) plus
// a directional price factor (capped 0.2), themselves capped at 1.0.
func signalConfidence(price, shortMA, longMA float64, crossoverType string) float64 {
	const base = 0.5

	gapFactor := math.Min(math.Abs(shortMA-longMA)/longMA*10, 0.3)

	var priceFactor float64
	if crossoverType == "bullish" {
		if price > longMA {
			priceFactor = math.Min((price-longMA)/longMA*5, 0.2)
		}
	} else {
		if price < longMA {
			priceFactor = math.Min((longMA-price)/longMA*5, 0.2)
		}
	}

	return math.Min(base+gapFactor+priceFactor, 1.0)
}

// positionSize scales a 100-share base size by 0.5x-1.0x based on
// confidence, floored and never below 1 share.
func positionSize(confidence float64) int {
	const baseSize = 100
	multiplier := 0.5 + confidence*0.5
	size := int(math.Floor(baseSize * multiplier))
	if size < 1 {
		return 1
	}
	return size
}
