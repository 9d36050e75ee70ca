package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the DomainEvent tagged union. Dispatch on a
// DomainEvent is always by Kind, never by type-asserting a class
// hierarchy.
type EventKind string

const (
	EventMarketDataReceived EventKind = "market_data_received"
	EventMarketOpened       EventKind = "market_opened"
	EventMarketClosed       EventKind = "market_closed"

	EventSignalGenerated EventKind = "signal_generated"
	EventSignalApproved  EventKind = "signal_approved"
	EventSignalRejected  EventKind = "signal_rejected"

	EventOrderSubmitted EventKind = "order_submitted"
	EventOrderFilled    EventKind = "order_filled"
	EventOrderCancelled EventKind = "order_cancelled"
	EventOrderRejected  EventKind = "order_rejected"

	EventTradeIdeaGenerated EventKind = "trade_idea_generated"
	EventTradeIdeaApproved  EventKind = "trade_idea_approved"
	EventTradeIdeaRejected  EventKind = "trade_idea_rejected"

	EventBrokerConnected    EventKind = "broker_connected"
	EventBrokerDisconnected EventKind = "broker_disconnected"
	EventStrategyActivated  EventKind = "strategy_activated"
	EventStrategyDeactivated EventKind = "strategy_deactivated"

	EventRiskLimitBreached EventKind = "risk_limit_breached"
)

// DomainEvent is the tagged union of everything that happens in the
// pipeline. Metadata carries kind-specific payload; callers that need a
// particular event's typed payload look it up by the documented key for
// that Kind (e.g. "approved_trade", "rejected_trade", "signal").
type DomainEvent struct {
	Kind      EventKind
	EventID   string
	Timestamp time.Time
	Metadata  map[string]any
}

func newEvent(kind EventKind, metadata map[string]any) DomainEvent {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return DomainEvent{
		Kind:      kind,
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// NewSignalGeneratedEvent builds a SIGNAL_GENERATED event for a strategy's
// output signal.
func NewSignalGeneratedEvent(signal TradeSignal, strategyName string) DomainEvent {
	return newEvent(EventSignalGenerated, map[string]any{
		"signal":        signal,
		"strategy_name": strategyName,
	})
}

// NewSignalApprovedEvent builds a SIGNAL_APPROVED event.
func NewSignalApprovedEvent(approved ApprovedTrade) DomainEvent {
	return newEvent(EventSignalApproved, map[string]any{
		"approved_trade": approved,
	})
}

// NewSignalRejectedEvent builds a SIGNAL_REJECTED event.
func NewSignalRejectedEvent(rejected RejectedTrade) DomainEvent {
	return newEvent(EventSignalRejected, map[string]any{
		"rejected_trade": rejected,
	})
}

// NewOrderSubmittedEvent builds an ORDER_SUBMITTED event.
func NewOrderSubmittedEvent(order OrderEvent) DomainEvent {
	return newEvent(EventOrderSubmitted, map[string]any{
		"order_event": order,
		"signal_id":   order.SignalID,
	})
}

// NewOrderFilledEvent builds an ORDER_FILLED event.
func NewOrderFilledEvent(order OrderEvent) DomainEvent {
	return newEvent(EventOrderFilled, map[string]any{
		"order_event": order,
	})
}

// NewOrderCancelledEvent builds an ORDER_CANCELLED event.
func NewOrderCancelledEvent(order OrderEvent) DomainEvent {
	return newEvent(EventOrderCancelled, map[string]any{
		"order_event": order,
	})
}

// NewOrderRejectedEvent builds an ORDER_REJECTED event.
func NewOrderRejectedEvent(order OrderEvent) DomainEvent {
	return newEvent(EventOrderRejected, map[string]any{
		"order_event":      order,
		"rejection_reason": order.RejectionReason,
	})
}

// NewTradeIdeaGeneratedEvent builds a TRADE_IDEA_GENERATED event.
func NewTradeIdeaGeneratedEvent(idea TradeIdea) DomainEvent {
	return newEvent(EventTradeIdeaGenerated, map[string]any{
		"trade_idea": idea,
	})
}

// NewTradeIdeaApprovedEvent builds a TRADE_IDEA_APPROVED event.
func NewTradeIdeaApprovedEvent(idea TradeIdea, approvedSignal *TradeSignal) DomainEvent {
	return newEvent(EventTradeIdeaApproved, map[string]any{
		"trade_idea":      idea,
		"approved_signal": approvedSignal,
	})
}

// NewTradeIdeaRejectedEvent builds a TRADE_IDEA_REJECTED event.
func NewTradeIdeaRejectedEvent(idea TradeIdea, reason string) DomainEvent {
	return newEvent(EventTradeIdeaRejected, map[string]any{
		"trade_idea":        idea,
		"rejection_reason": reason,
	})
}

// NewRiskLimitBreachedEvent builds a RISK_LIMIT_BREACHED event.
func NewRiskLimitBreachedEvent(limitType string, current, limit float64, signalID string) DomainEvent {
	return newEvent(EventRiskLimitBreached, map[string]any{
		"limit_type":    limitType,
		"current_value": current,
		"limit_value":   limit,
		"signal_id":     signalID,
	})
}
