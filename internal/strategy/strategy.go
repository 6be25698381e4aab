// Package strategy decides when a simulated position should exit.
package strategy

import (
	"solana-revival-lab/internal/domain"
)

// Rule checks one exit condition against the latest price.
type Rule interface {
	// Check returns the exit type when the rule fires.
	Check(pos *domain.Position, price float64, nowMs int64) (domain.ExitType, bool)

	// ID returns rule identifier (includes parameters).
	ID() string
}

// ExitPlan evaluates rules in priority order. The first rule that fires wins.
type ExitPlan struct {
	rules []Rule
}

// NewExitPlan creates a plan from rules in priority order.
func NewExitPlan(rules ...Rule) *ExitPlan {
	return &ExitPlan{rules: rules}
}

// Evaluate returns the exit type for the position at price, if any.
// Closed positions never exit.
func (p *ExitPlan) Evaluate(pos *domain.Position, price float64, nowMs int64) (domain.ExitType, bool) {
	if pos == nil || !pos.IsOpen() {
		return "", false
	}
	for _, r := range p.rules {
		if exitType, ok := r.Check(pos, price, nowMs); ok {
			return exitType, true
		}
	}
	return "", false
}

// IDs lists the rule identifiers in evaluation order.
func (p *ExitPlan) IDs() []string {
	ids := make([]string, len(p.rules))
	for i, r := range p.rules {
		ids[i] = r.ID()
	}
	return ids
}
