package domain

// ExitType identifies the trigger of an exit event.
type ExitType string

// Exit types
const (
	ExitStopLoss    ExitType = "stop_loss"
	ExitTakeProfit1 ExitType = "take_profit_1"
	ExitTakeProfit2 ExitType = "take_profit_2"
	ExitTimeBased   ExitType = "time_based"
	ExitFailed      ExitType = "failed_exit"
	ExitManual      ExitType = "manual"
)

// IsValid checks if the exit type is known.
func (e ExitType) IsValid() bool {
	switch e {
	case ExitStopLoss, ExitTakeProfit1, ExitTakeProfit2, ExitTimeBased, ExitFailed, ExitManual:
		return true
	}
	return false
}

// Trade is an immutable record of one exit event.
type Trade struct {
	TradeID      string // deterministic hash
	PositionID   string
	TokenAddress string
	Symbol       string

	EntryPrice float64
	EntryTime  int64   // ms
	ExitPrice  float64 // 0 for failed exits
	ExitTime   int64   // ms
	ExitType   ExitType

	// QuantityUSD is the notional sold in this event.
	QuantityUSD float64
	SellPct     float64
	PnLUSD      float64 // net of fees
	PnLPct      float64
	FeesPaid    float64
	HoldDays    float64
}

// IsWin reports whether the trade made money. Failed exits are neither wins nor losses.
func (t *Trade) IsWin() bool {
	return t.ExitType != ExitFailed && t.PnLUSD > 0
}
