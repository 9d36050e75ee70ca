package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexherrero/tradepipe/broker"
	"github.com/alexherrero/tradepipe/events"
	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

const recentSignalsCapacity = 1000

// Statistics tracks running counters for the risk engine's HTTP status
// surface.
type Statistics struct {
	Approved int
	Rejected int
}

// Engine owns the ordered rule pipeline and the bounded recent-signals
// buffer. It is the only writer of both.
type Engine struct {
	mu            sync.Mutex
	rules         []Rule
	recentSignals []models.TradeSignal
	isActive      bool
	bus           *events.Bus
	stats         Statistics
}

// NewEngine builds a risk engine with the default five-rule pipeline in
// the order the original source evaluates them: max position size, max
// positions per symbol, min confidence, duplicate signal, market hours.
// priceLookup may be nil, in which case MaxPositionSizeRule falls back to
// the $100/share placeholder for every signal.
func NewEngine(bus *events.Bus, priceLookup broker.PriceLookup) *Engine {
	return &Engine{
		rules: []Rule{
			&MaxPositionSizeRule{PriceLookup: priceLookup},
			&MaxPositionsPerSymbolRule{},
			&MinConfidenceRule{},
			&DuplicateSignalRule{},
			&MarketHoursRule{},
		},
		isActive: true,
		bus:      bus,
	}
}

// Activate re-enables the risk gate.
func (e *Engine) Activate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isActive = true
	log.Info().Msg("risk engine activated")
}

// Deactivate disables the risk gate; every subsequent signal is rejected
// without evaluating any rule.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isActive = false
	log.Warn().Msg("risk engine deactivated")
}

// IsActive reports whether the risk gate is currently enabled.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isActive
}

// AddRule appends a rule to the end of the pipeline.
func (e *Engine) AddRule(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// ListRules returns the rule names in evaluation order.
func (e *Engine) ListRules() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// GetStatistics returns a snapshot of approve/reject counts.
func (e *Engine) GetStatistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ValidateSignal runs the rule pipeline against signal. Exactly one of
// the two return values is non-nil. All rules see the same
// (account, positions, recentSignals) snapshot; the recent-signals buffer
// is appended to only on approval, so a signal can never be its own
// duplicate.
func (e *Engine) ValidateSignal(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot) (*models.ApprovedTrade, *models.RejectedTrade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isActive {
		rejected := e.reject(signal, "Risk engine is disabled", nil)
		return nil, &rejected
	}

	recent := make([]models.TradeSignal, len(e.recentSignals))
	copy(recent, e.recentSignals)

	outcomes := make(map[string]models.RuleOutcome, len(e.rules))
	for _, rule := range e.rules {
		pass, reason := e.evaluate(rule, signal, account, positions, recent)
		outcomes[rule.Name()] = models.RuleOutcome{Passed: pass, Reason: reason}
		if !pass {
			rejected := e.reject(signal, fmt.Sprintf("%s: %s", rule.Name(), reason), outcomes)
			return nil, &rejected
		}
	}

	approved := models.ApprovedTrade{
		Signal:            signal,
		ApprovedAt:        time.Now().UTC(),
		RiskCheckMetadata: outcomes,
	}
	e.recentSignals = append(e.recentSignals, signal)
	if len(e.recentSignals) > recentSignalsCapacity {
		e.recentSignals = e.recentSignals[len(e.recentSignals)-recentSignalsCapacity/2:]
	}
	e.stats.Approved++
	if e.bus != nil {
		e.bus.Publish(models.NewSignalApprovedEvent(approved))
	}
	return &approved, nil
}

// evaluate recovers from an unexpected rule panic and turns it into a
// rejection reason rather than crashing the engine, matching the
// original source's "errors never approve by accident" guarantee.
func (e *Engine) evaluate(rule Rule, signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recent []models.TradeSignal) (pass bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			pass = false
			reason = fmt.Sprintf("Risk validation error: %v", r)
		}
	}()
	return rule.Validate(signal, account, positions, recent)
}

func (e *Engine) reject(signal models.TradeSignal, reason string, outcomes map[string]models.RuleOutcome) models.RejectedTrade {
	rejected := models.RejectedTrade{
		Signal:            signal,
		RejectedAt:        time.Now().UTC(),
		RejectionReason:   reason,
		RiskCheckMetadata: outcomes,
	}
	e.stats.Rejected++
	if e.bus != nil {
		e.bus.Publish(models.NewSignalRejectedEvent(rejected))
	}
	return rejected
}
