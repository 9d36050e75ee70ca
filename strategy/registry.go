package strategy

import (
	"fmt"
	"sync"

	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

// Engine owns the registry of strategies and dispatches market events to
// the ones that declare interest in the event's symbol.
type Engine struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	active     map[string]bool
	bus        *events.Bus
}

// NewEngine builds an empty strategy engine publishing to bus.
func NewEngine(bus *events.Bus) *Engine {
	return &Engine{
		strategies: make(map[string]Strategy),
		active:     make(map[string]bool),
		bus:        bus,
	}
}

// Register adds a strategy, active by default.
func (e *Engine) Register(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
	e.active[s.Name()] = true
}

// Unregister removes a strategy entirely.
func (e *Engine) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.strategies, name)
	delete(e.active, name)
}

// Get returns a registered strategy by name.
func (e *Engine) Get(name string) (Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[name]
	return s, ok
}

// List returns the names of every registered strategy.
func (e *Engine) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	return names
}

// Activate re-enables dispatch to a registered strategy.
func (e *Engine) Activate(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.strategies[name]; !ok {
		return fmt.Errorf("unknown strategy: %s", name)
	}
	e.active[name] = true
	return nil
}

// Deactivate stops dispatch to a registered strategy without
// unregistering it; its required-symbol set is preserved.
func (e *Engine) Deactivate(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.strategies[name]; !ok {
		return fmt.Errorf("unknown strategy: %s", name)
	}
	e.active[name] = false
	return nil
}

// RequiredSymbols returns the union of every registered strategy's
// relevant symbols, regardless of active state.
func (e *Engine) RequiredSymbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, s := range e.strategies {
		for _, sym := range s.Symbols() {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

// ProcessMarketEvent dispatches e to every active strategy whose relevant
// symbols contain e.Symbol, publishing a SignalGenerated event for each
// returned signal. A panicking strategy is logged and isolated; its
// siblings still run.
func (e *Engine) ProcessMarketEvent(evt models.MarketEvent) []models.TradeSignal {
	e.mu.RLock()
	snapshot := make([]Strategy, 0, len(e.strategies))
	for name, s := range e.strategies {
		if e.active[name] && relevantTo(s, evt.Symbol) {
			snapshot = append(snapshot, s)
		}
	}
	e.mu.RUnlock()

	var signals []models.TradeSignal
	for _, s := range snapshot {
		signals = append(signals, e.dispatch(s, evt)...)
	}
	return signals
}

func (e *Engine) dispatch(s Strategy, evt models.MarketEvent) (out []models.TradeSignal) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("strategy", s.Name()).Interface("panic", r).Msg("strategy panicked processing market event")
			out = nil
		}
	}()

	signals := s.OnMarketEvent(evt)
	for _, sig := range signals {
		if e.bus != nil {
			e.bus.Publish(models.NewSignalGeneratedEvent(sig, s.Name()))
		}
	}
	return signals
}

func relevantTo(s Strategy, symbol string) bool {
	for _, sym := range s.Symbols() {
		if sym == symbol {
			return true
		}
	}
	return false
}
