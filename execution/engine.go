// Package execution holds the sole component permitted to call broker
// methods: it submits approved trades, tracks their lifecycle, and polls
// each order to a terminal state.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexherrero/tradepipe/broker"
	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

// Status is the engine's single-entrant execution gate.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

const (
	monitorPollInterval = time.Second
	monitorMaxChecks    = 300
)

// ActiveOrder tracks a submitted order awaiting a terminal status.
type ActiveOrder struct {
	BrokerOrderID string
	SignalID      string
	Symbol        string
	Side          models.Side
	Qty           int
	SubmittedAt   time.Time
}

// Statistics tracks running counters surfaced via the HTTP status route.
type Statistics struct {
	OrdersSubmitted int
	OrdersFilled    int
	OrdersRejected  int
	OrdersCancelled int
}

// Engine is the single writer of the broker adapter. Only this package's
// constructor ever receives a live broker.Broker.
type Engine struct {
	broker broker.Broker
	bus    *events.Bus

	mu           sync.Mutex
	status       Status
	activeOrders map[string]ActiveOrder
	orderHistory map[string]models.OrderEvent
	stats        Statistics

	monitorWG sync.WaitGroup
	cancelFns map[string]context.CancelFunc

	pollInterval time.Duration
	maxChecks    int
}

// NewEngine builds an execution engine around b. b must not be shared
// with any other component.
func NewEngine(b broker.Broker, bus *events.Bus) *Engine {
	return &Engine{
		broker:       b,
		bus:          bus,
		status:       StatusIdle,
		activeOrders: make(map[string]ActiveOrder),
		orderHistory: make(map[string]models.OrderEvent),
		cancelFns:    make(map[string]context.CancelFunc),
		pollInterval: monitorPollInterval,
		maxChecks:    monitorMaxChecks,
	}
}

// Status returns the engine's current gate state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// GetStatistics returns a snapshot of the running counters.
func (e *Engine) GetStatistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// GetActiveOrders returns a snapshot of orders awaiting a terminal state.
func (e *Engine) GetActiveOrders() map[string]ActiveOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]ActiveOrder, len(e.activeOrders))
	for k, v := range e.activeOrders {
		out[k] = v
	}
	return out
}

// GetOrderHistory returns a snapshot of every order event ever recorded.
func (e *Engine) GetOrderHistory() map[string]models.OrderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]models.OrderEvent, len(e.orderHistory))
	for k, v := range e.orderHistory {
		out[k] = v
	}
	return out
}

// GetAccount passes through to the broker's account snapshot. It is the
// only read path the API surface is given into the single-writer broker.
func (e *Engine) GetAccount(ctx context.Context) (models.AccountSnapshot, error) {
	return e.broker.GetAccount(ctx)
}

// GetPositions passes through to the broker's open positions.
func (e *Engine) GetPositions(ctx context.Context) ([]models.PositionSnapshot, error) {
	return e.broker.GetPositions(ctx)
}

// ExecuteApprovedTrade submits approved's signal to the broker exactly
// once. It refuses to run unless the engine is IDLE, and always returns
// to IDLE on every exit path.
func (e *Engine) ExecuteApprovedTrade(ctx context.Context, approved models.ApprovedTrade) (models.OrderEvent, error) {
	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		return models.OrderEvent{}, fmt.Errorf("execution engine busy: status=%s", e.status)
	}
	e.status = StatusProcessing
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.status = StatusIdle
		e.mu.Unlock()
	}()

	signal := approved.Signal
	start := time.Now()
	order, err := e.broker.PlaceOrder(ctx, signal)
	elapsed := time.Since(start)

	if err != nil {
		order = models.OrderEvent{
			OrderID:         signal.ID,
			SignalID:        signal.ID,
			Status:          models.OrderStatusRejected,
			Timestamp:       time.Now().UTC(),
			RejectionReason: fmt.Sprintf("Execution error: %v", err),
		}
	}

	e.mu.Lock()
	e.orderHistory[order.OrderID] = order
	switch order.Status {
	case models.OrderStatusSubmitted:
		e.stats.OrdersSubmitted++
		e.activeOrders[order.OrderID] = ActiveOrder{
			BrokerOrderID: order.BrokerOrderID,
			SignalID:      signal.ID,
			Symbol:        signal.Symbol,
			Side:          signal.Side,
			Qty:           signal.Qty,
			SubmittedAt:   order.Timestamp,
		}
	case models.OrderStatusRejected:
		e.stats.OrdersRejected++
	}
	e.mu.Unlock()

	log.Info().Str("symbol", signal.Symbol).Str("status", string(order.Status)).Dur("elapsed", elapsed).Msg("order placement complete")

	if e.bus != nil {
		switch order.Status {
		case models.OrderStatusSubmitted:
			e.bus.Publish(models.NewOrderSubmittedEvent(order))
		case models.OrderStatusRejected:
			e.bus.Publish(models.NewOrderRejectedEvent(order))
		}
	}

	if order.Status == models.OrderStatusSubmitted {
		e.startMonitor(order.OrderID, order.BrokerOrderID)
	}

	return order, nil
}

// startMonitor launches an independent goroutine that polls the broker
// for orderID's status until it reaches a terminal state, the engine is
// shut down, or monitorMaxChecks polls have elapsed.
func (e *Engine) startMonitor(internalID, brokerOrderID string) {
	ctx, cancel := context.WithCancel(NewEngineContext())
	e.mu.Lock()
	e.cancelFns[internalID] = cancel
	e.mu.Unlock()

	e.monitorWG.Add(1)
	go func() {
		defer e.monitorWG.Done()
		defer func() {
			e.mu.Lock()
			delete(e.cancelFns, internalID)
			e.mu.Unlock()
		}()
		e.monitorOrder(ctx, internalID, brokerOrderID)
	}()
}

func (e *Engine) monitorOrder(ctx context.Context, internalID, brokerOrderID string) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for i := 0; i < e.maxChecks; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := e.broker.GetOrderStatus(ctx, brokerOrderID)
		if err != nil {
			log.Warn().Err(err).
				Str("broker_order_id", brokerOrderID).
				Str("audit_ip", auditIPFromCtx(ctx)).
				Str("audit_key_id", auditKeyIDFromCtx(ctx)).
				Msg("order status poll failed")
			continue
		}

		e.mu.Lock()
		e.orderHistory[internalID] = status
		e.mu.Unlock()

		switch status.Status {
		case models.OrderStatusFilled:
			e.mu.Lock()
			delete(e.activeOrders, internalID)
			e.stats.OrdersFilled++
			e.mu.Unlock()
			if e.bus != nil {
				e.bus.Publish(models.NewOrderFilledEvent(status))
			}
			return
		case models.OrderStatusPartiallyFilled:
			// Counts toward orders_filled and stops the monitor, but the
			// order stays in activeOrders: only a full FILLED untracks it.
			e.mu.Lock()
			e.stats.OrdersFilled++
			e.mu.Unlock()
			if e.bus != nil {
				e.bus.Publish(models.NewOrderFilledEvent(status))
			}
			return
		case models.OrderStatusCancelled:
			e.mu.Lock()
			delete(e.activeOrders, internalID)
			e.stats.OrdersCancelled++
			e.mu.Unlock()
			if e.bus != nil {
				e.bus.Publish(models.NewOrderCancelledEvent(status))
			}
			return
		case models.OrderStatusRejected:
			e.mu.Lock()
			delete(e.activeOrders, internalID)
			e.stats.OrdersRejected++
			e.mu.Unlock()
			if e.bus != nil {
				e.bus.Publish(models.NewOrderRejectedEvent(status))
			}
			return
		}
	}

	e.mu.Lock()
	delete(e.activeOrders, internalID)
	e.mu.Unlock()
	log.Warn().
		Str("broker_order_id", brokerOrderID).
		Int("max_checks", e.maxChecks).
		Str("audit_ip", auditIPFromCtx(ctx)).
		Str("audit_key_id", auditKeyIDFromCtx(ctx)).
		Msg("order monitor gave up waiting for a terminal state")
}

// CancelOrder cancels a tracked order by its internal id.
func (e *Engine) CancelOrder(ctx context.Context, internalID string) (models.OrderEvent, error) {
	e.mu.Lock()
	active, ok := e.activeOrders[internalID]
	e.mu.Unlock()
	if !ok {
		return models.OrderEvent{}, fmt.Errorf("no active order %s", internalID)
	}

	order, err := e.broker.CancelOrder(ctx, active.BrokerOrderID)
	if err != nil {
		return models.OrderEvent{}, broker.NewOrderError(fmt.Sprintf("cancel failed for %s", internalID), err)
	}

	if order.Status == models.OrderStatusCancelled {
		e.mu.Lock()
		delete(e.activeOrders, internalID)
		e.stats.OrdersCancelled++
		e.orderHistory[internalID] = order
		if cancel, ok := e.cancelFns[internalID]; ok {
			cancel()
		}
		e.mu.Unlock()
		if e.bus != nil {
			e.bus.Publish(models.NewOrderCancelledEvent(order))
		}
	}
	return order, nil
}

// Shutdown best-effort cancels every active order, stops outstanding
// monitor goroutines, and disconnects the broker.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.activeOrders))
	for id := range e.activeOrders {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.CancelOrder(ctx, id); err != nil {
			log.Warn().Err(err).Str("order_id", id).Msg("failed to cancel order during shutdown")
		}
	}

	e.mu.Lock()
	for _, cancel := range e.cancelFns {
		cancel()
	}
	e.mu.Unlock()
	e.monitorWG.Wait()

	return e.broker.Disconnect(ctx)
}
