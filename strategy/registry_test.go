package strategy

import (
	"testing"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name    string
	symbols []string
	calls   int
	panics  bool
}

func (s *stubStrategy) Name() string      { return s.name }
func (s *stubStrategy) Symbols() []string { return s.symbols }
func (s *stubStrategy) OnMarketEvent(e models.MarketEvent) []models.TradeSignal {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return nil
}

// Round-trip: registering then unregistering a strategy leaves the
// engine's required-symbol set unchanged.
func TestEngine_RegisterUnregister_LeavesSymbolSetUnchanged(t *testing.T) {
	e := NewEngine(events.NewBus())
	before := e.RequiredSymbols()

	e.Register(&stubStrategy{name: "s1", symbols: []string{"AAPL"}})
	e.Unregister("s1")

	require.ElementsMatch(t, before, e.RequiredSymbols())
}

func TestEngine_ProcessMarketEvent_SkipsIrrelevantAndInactive(t *testing.T) {
	e := NewEngine(events.NewBus())
	relevant := &stubStrategy{name: "relevant", symbols: []string{"AAPL"}}
	irrelevant := &stubStrategy{name: "irrelevant", symbols: []string{"MSFT"}}
	e.Register(relevant)
	e.Register(irrelevant)
	require.NoError(t, e.Deactivate("relevant"))

	e.ProcessMarketEvent(models.MarketEvent{Symbol: "AAPL", Type: models.MarketEventTick, Payload: map[string]any{"price": 1.0}})

	require.Equal(t, 0, relevant.calls)
	require.Equal(t, 0, irrelevant.calls)

	require.NoError(t, e.Activate("relevant"))
	e.ProcessMarketEvent(models.MarketEvent{Symbol: "AAPL", Type: models.MarketEventTick, Payload: map[string]any{"price": 1.0}})
	require.Equal(t, 1, relevant.calls)
	require.Equal(t, 0, irrelevant.calls)
}

func TestEngine_ProcessMarketEvent_IsolatesPanickingStrategy(t *testing.T) {
	e := NewEngine(events.NewBus())
	panicky := &stubStrategy{name: "panicky", symbols: []string{"AAPL"}, panics: true}
	healthy := &stubStrategy{name: "healthy", symbols: []string{"AAPL"}}
	e.Register(panicky)
	e.Register(healthy)

	require.NotPanics(t, func() {
		e.ProcessMarketEvent(models.MarketEvent{Symbol: "AAPL", Type: models.MarketEventTick, Payload: map[string]any{"price": 1.0}})
	})
	require.Equal(t, 1, healthy.calls)
}

func TestEngine_UnknownStrategyActivateErrors(t *testing.T) {
	e := NewEngine(events.NewBus())
	require.Error(t, e.Activate("missing"))
	require.Error(t, e.Deactivate("missing"))
}
