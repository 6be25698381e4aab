package domain

// PortfolioSummary is the derived view of a session.
type PortfolioSummary struct {
	TotalValueUSD     float64
	CashBalanceUSD    float64
	PositionsValueUSD float64
	OpenCount         int
	PnLUSD            float64
	PnLPct            float64
	InitialBalanceUSD float64
}

// PortfolioSnapshot is one row of the portfolio time series.
type PortfolioSnapshot struct {
	TimestampMs       int64
	TotalValueUSD     float64
	CashBalanceUSD    float64
	PositionsValueUSD float64
	OpenCount         int
	PnLUSD            float64
	PnLPct            float64
}

// PerformanceReport aggregates closed trades and snapshots.
type PerformanceReport struct {
	TotalTrades int
	Wins        int
	Losses      int
	// WinRate is a percentage of TotalTrades.
	WinRate float64

	// TokenWinRate is the share of traded tokens with at least one winning exit.
	TotalTokens  int
	TokenWinRate float64

	TotalPnLUSD float64
	AvgGainPct  float64
	AvgLossPct  float64
	// ProfitFactor is +Inf when there are gains and no losses.
	ProfitFactor float64

	AvgHoldDays    float64
	MedianHoldDays float64

	SharpeRatio float64
	// MaxDrawdownPct is the deepest fall from a running peak, zero or negative.
	MaxDrawdownPct float64

	FailedExitCount   int
	FailedExitLossUSD float64

	ExitTypeCounts map[ExitType]int

	BestTrade  *Trade
	WorstTrade *Trade
}
