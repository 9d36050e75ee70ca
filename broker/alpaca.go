package broker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexherrero/tradepipe/models"
	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AlpacaBroker is the production broker adapter, backed by Alpaca's paper
// or live trading API depending on ALPACA_BASE_URL. It is the only
// component in the repo that imports the vendor SDK.
type AlpacaBroker struct {
	client    *alpaca.Client
	connected bool
}

// NewAlpacaBroker builds a client from ALPACA_API_KEY/ALPACA_SECRET_KEY/
// ALPACA_BASE_URL, defaulting the base URL to the paper trading endpoint
// so a missing env var never accidentally routes to live trading.
func NewAlpacaBroker() (*AlpacaBroker, error) {
	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_SECRET_KEY")
	if apiKey == "" || secretKey == "" {
		return nil, NewConnectionError("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set", nil)
	}
	baseURL := os.Getenv("ALPACA_BASE_URL")
	if baseURL == "" {
		baseURL = "https://paper-api.alpaca.markets"
	}

	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: secretKey,
		BaseURL:   baseURL,
	})
	return &AlpacaBroker{client: client}, nil
}

func (b *AlpacaBroker) Name() string { return "alpaca" }

func (b *AlpacaBroker) Connect(ctx context.Context) error {
	account, err := b.client.GetAccount()
	if err != nil {
		return NewConnectionError("failed to reach alpaca account endpoint", err)
	}
	if account.TradingBlocked {
		return NewConnectionError("account is blocked from trading", nil)
	}
	b.connected = true
	log.Info().Str("account_id", account.ID).Msg("alpaca broker connected")
	return nil
}

func (b *AlpacaBroker) Disconnect(ctx context.Context) error {
	b.connected = false
	return nil
}

func (b *AlpacaBroker) IsConnected() bool { return b.connected }

func (b *AlpacaBroker) GetAccount(ctx context.Context) (models.AccountSnapshot, error) {
	account, err := b.client.GetAccount()
	if err != nil {
		return models.AccountSnapshot{}, NewConnectionError("failed to fetch account", err)
	}
	return models.AccountSnapshot{
		Equity:             decimal.NewFromFloat(account.Equity.InexactFloat64()),
		BuyingPower:        decimal.NewFromFloat(account.BuyingPower.InexactFloat64()),
		Cash:               decimal.NewFromFloat(account.Cash.InexactFloat64()),
		DayTradesRemaining: int(account.DaytradeCount),
		Timestamp:          time.Now().UTC(),
	}, nil
}

func (b *AlpacaBroker) GetPositions(ctx context.Context) ([]models.PositionSnapshot, error) {
	positions, err := b.client.ListPositions()
	if err != nil {
		return nil, NewConnectionError("failed to list positions", err)
	}
	out := make([]models.PositionSnapshot, 0, len(positions))
	for _, p := range positions {
		qty := int(p.Qty.IntPart())
		out = append(out, models.PositionSnapshot{
			Symbol:       p.Symbol,
			Qty:          qty,
			AvgPrice:     decimal.NewFromFloat(p.AvgEntryPrice.InexactFloat64()),
			UnrealizedPL: decimal.NewFromFloat(p.UnrealizedPL.InexactFloat64()),
			Timestamp:    time.Now().UTC(),
		})
	}
	return out, nil
}

func (b *AlpacaBroker) GetPosition(ctx context.Context, symbol string) (models.PositionSnapshot, error) {
	p, err := b.client.GetPosition(symbol)
	if err != nil {
		return models.PositionSnapshot{}, NewConnectionError(fmt.Sprintf("failed to fetch position for %s", symbol), err)
	}
	return models.PositionSnapshot{
		Symbol:       p.Symbol,
		Qty:          int(p.Qty.IntPart()),
		AvgPrice:     decimal.NewFromFloat(p.AvgEntryPrice.InexactFloat64()),
		UnrealizedPL: decimal.NewFromFloat(p.UnrealizedPL.InexactFloat64()),
		Timestamp:    time.Now().UTC(),
	}, nil
}

func (b *AlpacaBroker) PlaceOrder(ctx context.Context, signal models.TradeSignal) (models.OrderEvent, error) {
	side := alpaca.Side(signal.Side)
	orderType := convertOrderType(signal.OrderType)
	qty := decimal.NewFromInt(int64(signal.Qty))

	req := alpaca.PlaceOrderRequest{
		Symbol:      signal.Symbol,
		Qty:         &qty,
		Side:        side,
		Type:        orderType,
		TimeInForce: alpaca.Day,
	}
	if signal.Price != nil {
		req.LimitPrice = signal.Price
	}
	if signal.StopPrice != nil {
		req.StopPrice = signal.StopPrice
	}

	order, err := b.client.PlaceOrder(req)
	if err != nil {
		return models.OrderEvent{
			OrderID:         signal.ID,
			SignalID:        signal.ID,
			Status:          models.OrderStatusRejected,
			Timestamp:       time.Now().UTC(),
			RejectionReason: fmt.Sprintf("broker rejected order: %v", err),
		}, nil
	}

	return models.OrderEvent{
		OrderID:       signal.ID,
		SignalID:      signal.ID,
		Status:        NormalizeStatus(string(order.Status)),
		Timestamp:     time.Now().UTC(),
		BrokerOrderID: order.ID,
	}, nil
}

func (b *AlpacaBroker) CancelOrder(ctx context.Context, brokerOrderID string) (models.OrderEvent, error) {
	if err := b.client.CancelOrder(brokerOrderID); err != nil {
		return models.OrderEvent{}, NewOrderError(fmt.Sprintf("failed to cancel order %s", brokerOrderID), err)
	}
	return b.GetOrderStatus(ctx, brokerOrderID)
}

func (b *AlpacaBroker) GetOrderStatus(ctx context.Context, brokerOrderID string) (models.OrderEvent, error) {
	order, err := b.client.GetOrder(brokerOrderID)
	if err != nil {
		return models.OrderEvent{}, NewOrderError(fmt.Sprintf("failed to fetch order %s", brokerOrderID), err)
	}
	evt := models.OrderEvent{
		OrderID:       brokerOrderID,
		Status:        NormalizeStatus(string(order.Status)),
		Timestamp:     time.Now().UTC(),
		BrokerOrderID: order.ID,
	}
	if order.FilledQty.IsPositive() {
		evt.FilledQty = int(order.FilledQty.IntPart())
	}
	if order.FilledAvgPrice != nil {
		fp := decimal.NewFromFloat(order.FilledAvgPrice.InexactFloat64())
		evt.FilledPrice = &fp
	}
	return evt, nil
}

// StreamMarketData does not subscribe to any vendor feed: it never calls
// callback, blocks until ctx is cancelled and returns ctx.Err().
// Disconnect does not end it.
func (b *AlpacaBroker) StreamMarketData(ctx context.Context, symbols []string, callback func(models.MarketEvent)) error {
	<-ctx.Done()
	return ctx.Err()
}

// GetCurrentPrice returns the latest trade price, falling back to the
// bid/ask midpoint when no trade is available — mirroring the original
// adapter's fallback chain.
func (b *AlpacaBroker) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	trade, err := b.client.GetLatestTrade(symbol)
	if err == nil && trade != nil {
		return decimal.NewFromFloat(trade.Price), nil
	}

	quote, qerr := b.client.GetLatestQuote(symbol)
	if qerr != nil || quote == nil {
		return decimal.Zero, NewMarketDataError(fmt.Sprintf("no price data available for %s", symbol), qerr)
	}
	mid := decimal.NewFromFloat((quote.BidPrice + quote.AskPrice) / 2)
	return mid, nil
}

func convertOrderType(t models.OrderType) alpaca.OrderType {
	switch t {
	case models.OrderTypeLimit:
		return alpaca.Limit
	case models.OrderTypeStop:
		return alpaca.Stop
	case models.OrderTypeStopLimit:
		return alpaca.StopLimit
	default:
		return alpaca.Market
	}
}

var _ Broker = (*AlpacaBroker)(nil)
