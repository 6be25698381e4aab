package scoring

import "solana-revival-lab/internal/domain"

// countWhales counts traders above the whale threshold among the top ranked entries.
// Falls back to the pre-computed count when no listing is attached.
func (e *Engine) countWhales(m *domain.TokenMetrics) int {
	if len(m.TopTraders) == 0 {
		return m.WhaleWalletCount
	}

	traders := m.TopTraders
	if e.cfg.TopTradersLimit > 0 && len(traders) > e.cfg.TopTradersLimit {
		traders = traders[:e.cfg.TopTradersLimit]
	}

	whales := 0
	for _, t := range traders {
		if t.ValueUSD > e.cfg.WhaleThresholdUSD {
			whales++
		}
	}
	return whales
}

// scoreSmartMoney maps whale count to a step score.
func (e *Engine) scoreSmartMoney(m *domain.TokenMetrics) float64 {
	switch whales := e.countWhales(m); {
	case whales >= 5:
		return 1.0
	case whales >= 3:
		return 0.75
	case whales >= 2:
		return 0.5
	case whales >= 1:
		return 0.25
	default:
		return 0
	}
}
