package paper

import (
	"context"
	"fmt"

	"solana-revival-lab/internal/domain"
)

// Summary returns the current portfolio valuation.
func (m *Manager) Summary() domain.PortfolioSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Manager) summaryLocked() domain.PortfolioSummary {
	positionsValue := 0.0
	for _, id := range m.openByToken {
		positionsValue += m.positions[id].RemainingValueUSD()
	}

	total := m.cash + positionsValue
	pnl := total - m.cfg.InitialBalanceUSD
	return domain.PortfolioSummary{
		TotalValueUSD:     total,
		CashBalanceUSD:    m.cash,
		PositionsValueUSD: positionsValue,
		OpenCount:         len(m.openByToken),
		PnLUSD:            pnl,
		PnLPct:            pnl / m.cfg.InitialBalanceUSD * 100,
		InitialBalanceUSD: m.cfg.InitialBalanceUSD,
	}
}

// Snapshot appends the current valuation to the snapshot store.
func (m *Manager) Snapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	m.mu.Lock()
	sum := m.summaryLocked()
	m.mu.Unlock()

	snap := &domain.PortfolioSnapshot{
		TimestampMs:       m.now().UnixMilli(),
		TotalValueUSD:     sum.TotalValueUSD,
		CashBalanceUSD:    sum.CashBalanceUSD,
		PositionsValueUSD: sum.PositionsValueUSD,
		OpenCount:         sum.OpenCount,
		PnLUSD:            sum.PnLUSD,
		PnLPct:            sum.PnLPct,
	}
	if err := m.snapshotStore.Insert(ctx, snap); err != nil {
		return snap, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}
