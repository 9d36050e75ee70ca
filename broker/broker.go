// Package broker defines the narrow capability contract every vendor
// integration must satisfy, plus a paper-trading implementation and a
// real Alpaca-backed one. No strategy, risk, or advisory logic belongs
// here — pure data access and order plumbing only.
package broker

import (
	"context"

	"github.com/alexherrero/tradepipe/models"
	"github.com/shopspring/decimal"
)

// Broker is the single-writer adapter contract. Only execution.Engine may
// hold a live Broker; no other component is ever handed one.
type Broker interface {
	// Name identifies the broker implementation for logging.
	Name() string

	// Connect establishes the broker connection. It fails if credentials
	// are missing or the account is flagged as blocked from trading.
	Connect(ctx context.Context) error

	// Disconnect closes the connection and releases resources.
	Disconnect(ctx context.Context) error

	// IsConnected reports whether the connection is currently active.
	IsConnected() bool

	// GetAccount returns the current account snapshot.
	GetAccount(ctx context.Context) (models.AccountSnapshot, error)

	// GetPositions returns every open position.
	GetPositions(ctx context.Context) ([]models.PositionSnapshot, error)

	// GetPosition returns the position for a single symbol, or an error
	// if none exists or it cannot be fetched.
	GetPosition(ctx context.Context, symbol string) (models.PositionSnapshot, error)

	// PlaceOrder submits an order derived from an approved signal.
	// Returns an OrderEvent with status SUBMITTED on acceptance, or
	// REJECTED (with RejectionReason set) on broker-side refusal.
	PlaceOrder(ctx context.Context, signal models.TradeSignal) (models.OrderEvent, error)

	// CancelOrder cancels a previously submitted order by its
	// broker-assigned id.
	CancelOrder(ctx context.Context, brokerOrderID string) (models.OrderEvent, error)

	// GetOrderStatus returns the current state of a broker order.
	GetOrderStatus(ctx context.Context, brokerOrderID string) (models.OrderEvent, error)

	// StreamMarketData pushes MarketEvents to callback until ctx is
	// cancelled or Disconnect is called.
	StreamMarketData(ctx context.Context, symbols []string, callback func(models.MarketEvent)) error

	// GetCurrentPrice returns the last trade price, falling back to the
	// bid/ask midpoint, or an error if neither is available.
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// PriceLookup is the narrow subset of Broker the risk package needs
// for current-price context, so it can depend on it
// without pulling in order-placement capability.
type PriceLookup interface {
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}
