package scoring

import "solana-revival-lab/internal/domain"

// scoreVolume awards 0.5 for sustained 24h volume and 0.5 for buy dominance.
// All-zero buy/sell counts never earn the buy half.
func (e *Engine) scoreVolume(m *domain.TokenMetrics) float64 {
	score := 0.0
	if m.Volume24hUSD > e.cfg.MinVolume24hUSD {
		score += 0.5
	}
	if m.Trades.Buy24h > m.Trades.Sell24h {
		score += 0.5
	}
	return score
}
