package domain

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Position is a simulated holding. Owned by the paper trading manager.
type Position struct {
	ID           string
	TokenAddress string
	Symbol       string
	RevivalScore float64

	EntryTime          int64   // ms
	EntryPrice         float64 // execution price after slippage
	MarketPriceAtEntry float64

	StopLossPrice    float64
	TakeProfit1Price float64
	TakeProfit2Price float64

	// PositionSizeUSD is the gross notional deducted from cash.
	PositionSizeUSD float64
	// QuantityUSD is the net notional after the entry fee.
	QuantityUSD float64
	EntryFeeUSD float64

	RemainingPct float64
	Status       PositionStatus

	CurrentPrice  float64
	CurrentPnLPct float64
	LastUpdate    int64 // ms

	ClosedAt int64 // ms, zero while open
	// ExitCount numbers the exit events taken on this position.
	ExitCount int
}

// IsOpen reports whether the position can still be marked or closed.
func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// RemainingValueUSD returns the open notional adjusted by the current pnl.
func (p *Position) RemainingValueUSD() float64 {
	return p.QuantityUSD * p.RemainingPct / 100 * (1 + p.CurrentPnLPct/100)
}

// Account is the persisted cash state of a paper trading session.
type Account struct {
	InitialBalanceUSD float64
	CashBalanceUSD    float64
	UpdatedAt         int64 // ms
}
