// Package risk implements the ordered rule pipeline that gates every
// TradeSignal before it may reach the execution engine.
package risk

import "github.com/alexherrero/tradepipe/models"

// Rule is a single risk check. It never mutates its inputs and never
// panics on bad input — an unexpected error is the engine's concern, not
// the rule's.
type Rule interface {
	// Name identifies the rule in rejection reasons and audit metadata.
	Name() string

	// Validate reports whether signal passes this rule given the current
	// account, the signal's existing positions, and the bounded buffer of
	// recently approved signals. A false result must set reason.
	Validate(signal models.TradeSignal, account models.AccountSnapshot, positions []models.PositionSnapshot, recentSignals []models.TradeSignal) (bool, string)
}
