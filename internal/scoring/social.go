package scoring

import (
	"math"

	"solana-revival-lab/internal/domain"
)

// scoreSocial sums the community bands and caps the result at 1.0.
func (e *Engine) scoreSocial(m *domain.TokenMetrics) float64 {
	c := m.Trades
	minWallets := e.cfg.MinUniqueWallets24h
	minWatch := e.cfg.MinWatchCount
	score := 0.0

	switch w := c.UniqueWallets24h; {
	case w <= 0:
	case w >= minWallets*5:
		score += 0.25
	case w >= minWallets*2:
		score += 0.15
	case w >= minWallets:
		score += 0.10
	}

	switch t := c.Trade1h(); {
	case t >= 100:
		score += 0.25
	case t >= 50:
		score += 0.15
	case t >= 20:
		score += 0.10
	}

	switch w := c.WatchCount; {
	case w <= 0:
	case w >= minWatch*4:
		score += 0.15
	case w >= minWatch:
		score += 0.10
	}

	switch v := c.View24h; {
	case v >= 1000:
		score += 0.10
	case v >= 500:
		score += 0.05
	}

	switch bp := c.BuyPercentage1h(); {
	case bp <= 0:
	case bp >= 60:
		score += 0.25
	case bp >= 55:
		score += 0.15
	case bp >= 50:
		score += 0.10
	}

	return math.Min(score, 1.0)
}
