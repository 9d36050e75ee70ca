// Package models defines the immutable domain values that flow through the
// trading pipeline: signals, approvals, order events, account/position
// snapshots, market events, advisory ideas, and the domain event union.
// Every value here is constructed once and never mutated; a state change is
// expressed by producing a new value, never by assigning a field.
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType is the kind of order a signal intends to place.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// SignalSource identifies who produced a TradeSignal.
type SignalSource string

const (
	SourceStrategy SignalSource = "strategy"
	SourceAI       SignalSource = "ai"
)

// TradeSignal is an intent to trade, produced by a strategy or by an
// approved advisory idea. It must pass through the risk engine before it
// may reach the execution engine.
type TradeSignal struct {
	ID           string
	Symbol       string
	Side         Side
	Qty          int
	OrderType    OrderType
	Confidence   float64
	Source       SignalSource
	CreatedAt    time.Time
	StrategyName string
	Price        *decimal.Decimal
	StopPrice    *decimal.Decimal
	Metadata     map[string]any
}

// TradeSignalParams carries the caller-supplied fields for NewTradeSignal.
// ID and CreatedAt are always generated; zero-valued optional fields are
// left unset.
type TradeSignalParams struct {
	Symbol       string
	Side         Side
	Qty          int
	OrderType    OrderType
	Confidence   float64
	Source       SignalSource
	StrategyName string
	Price        *decimal.Decimal
	StopPrice    *decimal.Decimal
	Metadata     map[string]any
}

// NewTradeSignal validates and constructs a TradeSignal. It mirrors the
// construction-time invariants enforced by the original domain model:
// confidence in [0,1], positive quantity, and a positive price when one is
// supplied.
func NewTradeSignal(p TradeSignalParams) (TradeSignal, error) {
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return TradeSignal{}, errors.New("confidence must be between 0.0 and 1.0")
	}
	if p.Qty <= 0 {
		return TradeSignal{}, errors.New("quantity must be positive")
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return TradeSignal{}, errors.New("price must be positive")
	}
	if p.OrderType == "" {
		p.OrderType = OrderTypeMarket
	}
	meta := p.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return TradeSignal{
		ID:           uuid.NewString(),
		Symbol:       strings.ToUpper(p.Symbol),
		Side:         p.Side,
		Qty:          p.Qty,
		OrderType:    p.OrderType,
		Confidence:   p.Confidence,
		Source:       p.Source,
		CreatedAt:    time.Now().UTC(),
		StrategyName: p.StrategyName,
		Price:        p.Price,
		StopPrice:    p.StopPrice,
		Metadata:     meta,
	}, nil
}
