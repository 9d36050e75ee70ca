package broker

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// MarketPriceLookup is a PriceLookup backed by finance-go's unauthenticated
// quote endpoint. It is the risk engine's source of position-sizing
// prices, so the risk engine never holds the execution engine's Broker.
type MarketPriceLookup struct{}

// NewMarketPriceLookup returns a MarketPriceLookup.
func NewMarketPriceLookup() *MarketPriceLookup { return &MarketPriceLookup{} }

// GetCurrentPrice fetches the regular market price for symbol. It ignores
// ctx because finance-go does not expose a context-aware client; callers
// needing cancellation should race this behind their own goroutine.
func (m *MarketPriceLookup) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return decimal.Zero, NewMarketDataError(fmt.Sprintf("failed to fetch quote for %s", symbol), err)
	}
	if q == nil || q.RegularMarketPrice == 0 {
		return decimal.Zero, NewMarketDataError(fmt.Sprintf("no quote available for %s", symbol), nil)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), nil
}

var _ PriceLookup = (*MarketPriceLookup)(nil)
