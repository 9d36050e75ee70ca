package broker

import (
	"context"
	"testing"

	"github.com/alexherrero/tradepipe/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestSignal(t *testing.T, symbol string, side models.Side, qty int) models.TradeSignal {
	t.Helper()
	sig, err := models.NewTradeSignal(models.TradeSignalParams{
		Symbol:       symbol,
		Side:         side,
		Qty:          qty,
		Confidence:   0.8,
		Source:       models.SourceStrategy,
		StrategyName: "test",
	})
	require.NoError(t, err)
	return sig
}

func TestPaperBroker_PlaceOrder_FillsAtSetPrice(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(10000))
	require.NoError(t, b.Connect(ctx))
	b.SetPrice("AAPL", decimal.NewFromInt(100))

	sig := newTestSignal(t, "AAPL", models.SideBuy, 10)
	order, err := b.PlaceOrder(ctx, sig)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusSubmitted, order.Status)

	status, err := b.GetOrderStatus(ctx, order.BrokerOrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusFilled, status.Status)
	require.Equal(t, 10, status.FilledQty)
	require.True(t, status.FilledPrice.Equal(decimal.NewFromInt(100)))

	pos, err := b.GetPosition(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, 10, pos.Qty)

	account, err := b.GetAccount(ctx)
	require.NoError(t, err)
	require.True(t, account.Cash.Equal(decimal.NewFromInt(9000)))
}

func TestPaperBroker_PlaceOrder_RejectsInsufficientBuyingPower(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(100))
	require.NoError(t, b.Connect(ctx))
	b.SetPrice("AAPL", decimal.NewFromInt(100))

	sig := newTestSignal(t, "AAPL", models.SideBuy, 10)
	order, err := b.PlaceOrder(ctx, sig)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusRejected, order.Status)
	require.NotEmpty(t, order.RejectionReason)
}

func TestPaperBroker_PlaceOrder_RejectsWithoutPrice(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(10000))
	require.NoError(t, b.Connect(ctx))

	sig := newTestSignal(t, "MSFT", models.SideBuy, 5)
	order, err := b.PlaceOrder(ctx, sig)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusRejected, order.Status)
}

func TestPaperBroker_CancelOrder_FailsOnFilledOrder(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(10000))
	require.NoError(t, b.Connect(ctx))
	b.SetPrice("AAPL", decimal.NewFromInt(50))

	sig := newTestSignal(t, "AAPL", models.SideBuy, 2)
	order, err := b.PlaceOrder(ctx, sig)
	require.NoError(t, err)

	_, err = b.CancelOrder(ctx, order.BrokerOrderID)
	require.Error(t, err)
}

func TestPaperBroker_SellReducesPosition(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(10000))
	require.NoError(t, b.Connect(ctx))
	b.SetPrice("AAPL", decimal.NewFromInt(100))

	buy := newTestSignal(t, "AAPL", models.SideBuy, 10)
	_, err := b.PlaceOrder(ctx, buy)
	require.NoError(t, err)

	sell := newTestSignal(t, "AAPL", models.SideSell, 4)
	_, err = b.PlaceOrder(ctx, sell)
	require.NoError(t, err)

	pos, err := b.GetPosition(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, 6, pos.Qty)
}

func TestPaperBroker_NotConnected(t *testing.T) {
	ctx := context.Background()
	b := NewPaperBroker(decimal.NewFromInt(10000))
	_, err := b.GetAccount(ctx)
	require.Error(t, err)
}
