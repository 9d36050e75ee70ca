// Package strategy routes market events to registered per-symbol
// strategies and collects the trade signals they emit.
package strategy

import "github.com/alexherrero/tradepipe/models"

// Strategy processes market events into zero-or-more trade signals. A
// strategy owns whatever per-symbol state it needs (e.g. a rolling price
// history) and is responsible for its own bounding.
type Strategy interface {
	// Name identifies the strategy for the registry and HTTP surface.
	Name() string

	// Symbols reports the set of symbols this strategy cares about.
	// Market events for other symbols are never dispatched to it.
	Symbols() []string

	// OnMarketEvent processes a single event and returns any signals it
	// wants to emit. A strategy must never panic; the engine isolates
	// panics per-call but a well-behaved strategy returns an empty slice
	// instead.
	OnMarketEvent(e models.MarketEvent) []models.TradeSignal
}
