package strategy

import (
	"solana-revival-lab/internal/domain"
)

// StopLossRule exits when price falls to or below the position's stop.
type StopLossRule struct{}

// NewStopLossRule creates a StopLossRule.
func NewStopLossRule() *StopLossRule {
	return &StopLossRule{}
}

// ID returns the rule identifier.
func (r *StopLossRule) ID() string {
	return "STOP_LOSS"
}

// Check fires on price <= stop_loss_price.
func (r *StopLossRule) Check(pos *domain.Position, price float64, _ int64) (domain.ExitType, bool) {
	if price <= pos.StopLossPrice {
		return domain.ExitStopLoss, true
	}
	return "", false
}

// Ensure StopLossRule implements Rule
var _ Rule = (*StopLossRule)(nil)
