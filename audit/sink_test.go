package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "audit_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Invariant 7: all audit records buffered before shutdown are present in
// the store after shutdown completes.
func TestSink_Shutdown_FlushesBufferedRecords(t *testing.T) {
	store := newTestStore(t)
	bus := events.NewBus()
	sink := NewSink(store, bus)

	sig, err := models.NewTradeSignal(models.TradeSignalParams{
		Symbol: "AAPL", Side: models.SideBuy, Qty: 1, Confidence: 0.9, Source: models.SourceStrategy,
	})
	require.NoError(t, err)
	bus.Publish(models.NewSignalGeneratedEvent(sig, "test-strategy"))

	require.NoError(t, sink.Shutdown(context.Background()))

	var count int
	require.NoError(t, store.Get(&count, "SELECT COUNT(*) FROM trade_signals WHERE signal_id = ?", sig.ID))
	require.Equal(t, 1, count)
}

func TestSink_FlushesWhenBufferFull(t *testing.T) {
	store := newTestStore(t)
	bus := events.NewBus()
	sink := NewSink(store, bus)
	defer sink.Shutdown(context.Background())

	for i := 0; i < bufferCapacity+5; i++ {
		bus.Publish(models.NewRiskLimitBreachedEvent("max_position_size", 1, 1, "sig"))
	}

	require.Eventually(t, func() bool {
		var count int
		_ = store.Get(&count, "SELECT COUNT(*) FROM audit_events")
		return count >= bufferCapacity
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_Migrate_CreatesSixTables(t *testing.T) {
	store := newTestStore(t)
	tables := []string{"audit_events", "trade_signals", "risk_decisions", "order_events", "ai_trade_ideas", "performance_metrics"}
	for _, tbl := range tables {
		var name string
		err := store.Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", tbl)
		require.NoError(t, err, "expected table %s to exist", tbl)
	}
}
