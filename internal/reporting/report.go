package reporting

import (
	"time"

	"solana-revival-lab/internal/domain"
)

// Report is the performance report of a paper trading session.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	PeriodStart int64 // Unix ms, first snapshot or trade
	PeriodEnd   int64 // Unix ms, last snapshot or trade

	// Portfolio
	InitialBalanceUSD float64
	FinalValueUSD     float64
	ReturnPct         float64
	OpenPositions     []*domain.Position

	Performance *domain.PerformanceReport

	// Scan funnel
	Decisions DecisionSummary
}

// DecisionSummary counts scan decisions by outcome.
type DecisionSummary struct {
	Total    int
	Passed   int
	Opened   int
	ByReason map[domain.FailureReason]int
}
