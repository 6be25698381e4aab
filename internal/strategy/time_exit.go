package strategy

import (
	"fmt"

	"solana-revival-lab/internal/domain"
)

// TimeExitRule exits after a fixed hold duration.
type TimeExitRule struct {
	MaxHoldDays float64
}

// NewTimeExitRule creates a new TimeExitRule.
func NewTimeExitRule(maxHoldDays float64) *TimeExitRule {
	return &TimeExitRule{MaxHoldDays: maxHoldDays}
}

// ID returns the rule identifier including parameters.
func (r *TimeExitRule) ID() string {
	return fmt.Sprintf("TIME_EXIT_%gd", r.MaxHoldDays)
}

// Check fires once hold_days >= max_hold_days.
func (r *TimeExitRule) Check(pos *domain.Position, _ float64, nowMs int64) (domain.ExitType, bool) {
	if HoldDays(pos.EntryTime, nowMs) >= r.MaxHoldDays {
		return domain.ExitTimeBased, true
	}
	return "", false
}

// Ensure TimeExitRule implements Rule
var _ Rule = (*TimeExitRule)(nil)
