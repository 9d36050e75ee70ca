package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexherrero/tradepipe/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaperBroker simulates a broker entirely in memory: orders fill
// instantly at the last price set via SetPrice. It backs TRADING_MODE=
// dry_run and the test suite, adapted from the teacher's paper broker but
// speaking TradeSignal/OrderEvent/AccountSnapshot instead of Order/
// Position.
type PaperBroker struct {
	mu           sync.RWMutex
	connected    bool
	account      models.AccountSnapshot
	positions    map[string]models.PositionSnapshot
	orders       map[string]models.OrderEvent // keyed by broker order id
	latestPrices map[string]decimal.Decimal
}

// NewPaperBroker creates a paper broker seeded with initialCash.
func NewPaperBroker(initialCash decimal.Decimal) *PaperBroker {
	return &PaperBroker{
		account: models.AccountSnapshot{
			Equity:             initialCash,
			BuyingPower:        initialCash,
			Cash:               initialCash,
			DayTradesRemaining: 3,
			Timestamp:          time.Now().UTC(),
		},
		positions:    make(map[string]models.PositionSnapshot),
		orders:       make(map[string]models.OrderEvent),
		latestPrices: make(map[string]decimal.Decimal),
	}
}

func (b *PaperBroker) Name() string { return "paper" }

func (b *PaperBroker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	log.Info().Msg("paper broker connected")
	return nil
}

func (b *PaperBroker) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	log.Info().Msg("paper broker disconnected")
	return nil
}

func (b *PaperBroker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetPrice sets the simulated last-trade price used for market-order fills
// and GetCurrentPrice lookups.
func (b *PaperBroker) SetPrice(symbol string, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latestPrices[symbol] = price
}

func (b *PaperBroker) GetAccount(ctx context.Context) (models.AccountSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return models.AccountSnapshot{}, NewConnectionError("not connected to paper broker", nil)
	}
	return b.account, nil
}

func (b *PaperBroker) GetPositions(ctx context.Context) ([]models.PositionSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	positions := make([]models.PositionSnapshot, 0, len(b.positions))
	for _, p := range b.positions {
		positions = append(positions, p)
	}
	return positions, nil
}

func (b *PaperBroker) GetPosition(ctx context.Context, symbol string) (models.PositionSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[symbol]
	if !ok {
		return models.PositionSnapshot{}, fmt.Errorf("no position for %s", symbol)
	}
	return pos, nil
}

func (b *PaperBroker) PlaceOrder(ctx context.Context, signal models.TradeSignal) (models.OrderEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return models.OrderEvent{}, NewConnectionError("not connected to paper broker", nil)
	}

	brokerOrderID := "paper-" + uuid.NewString()[:8]

	price, ok := b.latestPrices[signal.Symbol]
	if signal.OrderType == models.OrderTypeMarket && !ok {
		return models.OrderEvent{
			OrderID:         uuid.NewString(),
			SignalID:        signal.ID,
			Status:          models.OrderStatusRejected,
			Timestamp:       time.Now().UTC(),
			RejectionReason: fmt.Sprintf("no price available for %s", signal.Symbol),
		}, nil
	}
	if signal.Price != nil {
		price = *signal.Price
	}

	if signal.Side == models.SideBuy {
		cost := price.Mul(decimal.NewFromInt(int64(signal.Qty)))
		if cost.GreaterThan(b.account.BuyingPower) {
			return models.OrderEvent{
				OrderID:         uuid.NewString(),
				SignalID:        signal.ID,
				Status:          models.OrderStatusRejected,
				Timestamp:       time.Now().UTC(),
				RejectionReason: fmt.Sprintf("insufficient buying power: need %s, have %s", cost, b.account.BuyingPower),
			}, nil
		}
	}

	order := models.OrderEvent{
		OrderID:       uuid.NewString(),
		SignalID:      signal.ID,
		Status:        models.OrderStatusSubmitted,
		Timestamp:     time.Now().UTC(),
		BrokerOrderID: brokerOrderID,
		Metadata:      map[string]any{"symbol": signal.Symbol, "side": signal.Side, "qty": signal.Qty},
	}
	b.orders[brokerOrderID] = order

	b.fill(brokerOrderID, signal, price)

	log.Info().Str("broker_order_id", brokerOrderID).Str("symbol", signal.Symbol).Msg("paper order submitted")
	return order, nil
}

// fill simulates an instant fill, updating positions/cash and the order's
// terminal state. The order's SUBMITTED event has already been returned
// to the caller; the monitor goroutine observes the fill via
// GetOrderStatus on its next poll, matching the real adapter's
// asynchronous fill model.
func (b *PaperBroker) fill(brokerOrderID string, signal models.TradeSignal, price decimal.Decimal) {
	qty := decimal.NewFromInt(int64(signal.Qty))

	if signal.Side == models.SideBuy {
		cost := price.Mul(qty)
		b.account.Cash = b.account.Cash.Sub(cost)
		b.account.BuyingPower = b.account.BuyingPower.Sub(cost)
		pos, exists := b.positions[signal.Symbol]
		if exists {
			totalQty := pos.Qty + signal.Qty
			totalCost := pos.AvgPrice.Mul(decimal.NewFromInt(int64(pos.Qty))).Add(cost)
			pos.AvgPrice = totalCost.Div(decimal.NewFromInt(int64(totalQty)))
			pos.Qty = totalQty
		} else {
			pos = models.PositionSnapshot{Symbol: signal.Symbol, Qty: signal.Qty, AvgPrice: price}
		}
		pos.Timestamp = time.Now().UTC()
		b.positions[signal.Symbol] = pos
	} else {
		proceeds := price.Mul(qty)
		b.account.Cash = b.account.Cash.Add(proceeds)
		b.account.BuyingPower = b.account.BuyingPower.Add(proceeds)
		pos, exists := b.positions[signal.Symbol]
		if exists {
			pos.Qty -= signal.Qty
			if pos.Qty == 0 {
				delete(b.positions, signal.Symbol)
			} else {
				pos.Timestamp = time.Now().UTC()
				b.positions[signal.Symbol] = pos
			}
		}
	}

	filled := b.orders[brokerOrderID]
	filled.Status = models.OrderStatusFilled
	filled.FilledQty = signal.Qty
	fp := price
	filled.FilledPrice = &fp
	filled.Timestamp = time.Now().UTC()
	b.orders[brokerOrderID] = filled
}

func (b *PaperBroker) CancelOrder(ctx context.Context, brokerOrderID string) (models.OrderEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[brokerOrderID]
	if !ok {
		return models.OrderEvent{}, NewOrderError(fmt.Sprintf("order not found: %s", brokerOrderID), nil)
	}
	if order.Status == models.OrderStatusFilled {
		return models.OrderEvent{}, NewOrderError(fmt.Sprintf("cannot cancel filled order: %s", brokerOrderID), nil)
	}
	order.Status = models.OrderStatusCancelled
	order.Timestamp = time.Now().UTC()
	b.orders[brokerOrderID] = order
	return order, nil
}

func (b *PaperBroker) GetOrderStatus(ctx context.Context, brokerOrderID string) (models.OrderEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, ok := b.orders[brokerOrderID]
	if !ok {
		return models.OrderEvent{}, NewOrderError(fmt.Sprintf("order not found: %s", brokerOrderID), nil)
	}
	return order, nil
}

// StreamMarketData produces no market events: it never calls callback,
// blocks until ctx is cancelled and returns ctx.Err(). Disconnect does
// not end it.
func (b *PaperBroker) StreamMarketData(ctx context.Context, symbols []string, callback func(models.MarketEvent)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *PaperBroker) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	price, ok := b.latestPrices[symbol]
	if !ok {
		return decimal.Zero, NewMarketDataError(fmt.Sprintf("no price available for %s", symbol), nil)
	}
	return price, nil
}

var _ Broker = (*PaperBroker)(nil)
