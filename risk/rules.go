package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/alexherrero/tradepipe/broker"
	"github.com/alexherrero/tradepipe/models"
	"github.com/shopspring/decimal"
)

const (
	placeholderSharePrice = 100
	maxPositionPctOfEquity = 0.05
	maxPositionsPerSymbol  = 2
	minConfidence          = 0.6
	duplicateWindow        = time.Minute
	marketOpenHour         = 9
	marketCloseHour        = 16
)

// MaxPositionSizeRule rejects signals whose estimated notional exceeds a
// fixed percentage of account equity. It prefers a live quote via
// priceLookup, falling back to the $100/share placeholder from the
// original source when no lookup is configured or the lookup fails.
type MaxPositionSizeRule struct {
	PriceLookup broker.PriceLookup
}

func (r *MaxPositionSizeRule) Name() string { return "max_position_size" }

func (r *MaxPositionSizeRule) Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string) {
	price := decimal.NewFromInt(placeholderSharePrice)
	if r.PriceLookup != nil {
		if p, err := r.PriceLookup.GetCurrentPrice(context.Background(), signal.Symbol); err == nil && p.IsPositive() {
			price = p
		}
	}

	estimated := price.Mul(decimal.NewFromInt(int64(signal.Qty)))
	limit := account.Equity.Mul(decimal.NewFromFloat(maxPositionPctOfEquity))
	if estimated.GreaterThan(limit) {
		return false, fmt.Sprintf("estimated position value %s exceeds %.0f%% of equity (%s)", estimated, maxPositionPctOfEquity*100, limit)
	}
	return true, ""
}

// MaxPositionsPerSymbolRule caps the number of existing non-zero
// positions a symbol may already have open.
type MaxPositionsPerSymbolRule struct{}

func (r *MaxPositionsPerSymbolRule) Name() string { return "max_positions_per_symbol" }

func (r *MaxPositionsPerSymbolRule) Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string) {
	count := 0
	for _, p := range positions {
		if p.Symbol == signal.Symbol && p.Qty != 0 {
			count++
		}
	}
	if count >= maxPositionsPerSymbol {
		return false, fmt.Sprintf("%d existing positions in %s already at limit of %d", count, signal.Symbol, maxPositionsPerSymbol)
	}
	return true, ""
}

// MinConfidenceRule rejects low-conviction signals outright.
type MinConfidenceRule struct{}

func (r *MinConfidenceRule) Name() string { return "min_confidence" }

func (r *MinConfidenceRule) Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string) {
	if signal.Confidence < minConfidence {
		return false, fmt.Sprintf("confidence %.2f below minimum %.2f", signal.Confidence, minConfidence)
	}
	return true, ""
}

// DuplicateSignalRule rejects a signal that matches the (symbol, side) of
// a recently approved signal within the duplicate window.
type DuplicateSignalRule struct{}

func (r *DuplicateSignalRule) Name() string { return "duplicate_signal" }

func (r *DuplicateSignalRule) Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string) {
	for _, prior := range recentSignals {
		if prior.Symbol != signal.Symbol || prior.Side != signal.Side {
			continue
		}
		if signal.CreatedAt.Sub(prior.CreatedAt) < duplicateWindow {
			return false, fmt.Sprintf("matching %s %s signal approved within the last %s", signal.Symbol, signal.Side, duplicateWindow)
		}
	}
	return true, ""
}

// MarketHoursRule rejects signals outside a weekday 9:00-16:00 local-time
// window. It distinguishes a weekend rejection message from an
// outside-hours-on-a-weekday one, matching the original adapter's two
// distinct reasons.
type MarketHoursRule struct {
	// Now defaults to time.Now when nil; tests override it for determinism.
	Now func() time.Time
}

func (r *MarketHoursRule) Name() string { return "market_hours" }

func (r *MarketHoursRule) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *MarketHoursRule) Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string) {
	now := r.now()
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false, "Market is closed (weekend)"
	}
	hour := now.Hour()
	if hour < marketOpenHour || hour >= marketCloseHour {
		return false, "Market is closed (outside trading hours)"
	}
	return true, ""
}
