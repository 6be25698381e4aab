package strategy

import (
	"fmt"

	"solana-revival-lab/internal/domain"
)

// remainingEpsilon absorbs float drift in remaining_pct after partial exits.
const remainingEpsilon = 1e-9

// TakeProfitRule implements the two-tier partial take profit.
// TP1 is only reachable while the full position remains. TP2 is only reachable
// once TP1 has fired and at least TP2MinRemainingPct is still open.
type TakeProfitRule struct {
	TP2MinRemainingPct float64
}

// NewTakeProfitRule creates a TakeProfitRule for the given TP1 sell share.
func NewTakeProfitRule(tp1SellPct float64) *TakeProfitRule {
	return &TakeProfitRule{TP2MinRemainingPct: 100 - tp1SellPct}
}

// ID returns the rule identifier including parameters.
func (r *TakeProfitRule) ID() string {
	return fmt.Sprintf("TAKE_PROFIT_TP2_MIN_%.0f", r.TP2MinRemainingPct)
}

// Check fires TP1 on a full position, otherwise TP2 on a partially exited one.
func (r *TakeProfitRule) Check(pos *domain.Position, price float64, _ int64) (domain.ExitType, bool) {
	if pos.RemainingPct >= 100-remainingEpsilon {
		if price >= pos.TakeProfit1Price {
			return domain.ExitTakeProfit1, true
		}
		return "", false
	}
	if pos.RemainingPct >= r.TP2MinRemainingPct-remainingEpsilon && price >= pos.TakeProfit2Price {
		return domain.ExitTakeProfit2, true
	}
	return "", false
}

// Ensure TakeProfitRule implements Rule
var _ Rule = (*TakeProfitRule)(nil)
