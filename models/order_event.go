package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a point on an order's lifecycle as observed through the
// broker adapter.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusSubmitted       OrderStatus = "submitted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// IsTerminal reports whether the status ends the order's monitoring
// lifecycle (FILLED, PARTIALLY_FILLED, CANCELLED, REJECTED). A partial
// fill still stops the monitor; only a FILLED status untracks the order
// from the active set.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusPartiallyFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// OrderEvent is a single observation of an order's state, returned by
// every broker adapter call that touches an order.
type OrderEvent struct {
	OrderID         string
	SignalID        string
	Status          OrderStatus
	Timestamp       time.Time
	BrokerOrderID   string
	FilledQty       int
	FilledPrice     *decimal.Decimal
	RejectionReason string
	Metadata        map[string]any
}
