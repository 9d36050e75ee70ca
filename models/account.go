package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountSnapshot is a point-in-time, read-only view of account state.
type AccountSnapshot struct {
	Equity             decimal.Decimal
	BuyingPower        decimal.Decimal
	Cash               decimal.Decimal
	DayTradesRemaining int
	Timestamp          time.Time
}

// PositionSnapshot is a point-in-time, read-only view of a single
// symbol's position. Qty is signed: negative indicates a short position.
type PositionSnapshot struct {
	Symbol       string
	Qty          int
	AvgPrice     decimal.Decimal
	UnrealizedPL decimal.Decimal
	ExposurePct  float64
	Timestamp    time.Time
}
