// Package metrics computes performance statistics of a paper trading session.
package metrics

import (
	"math"
	"sort"
	"time"

	"solana-revival-lab/internal/domain"
)

// Analyze builds the performance report from exit trades and portfolio snapshots.
// Failed exits are excluded from win/loss statistics and reported separately.
// A positive initial balance is used as the value before the first snapshot.
func Analyze(trades []*domain.Trade, snapshots []*domain.PortfolioSnapshot, initial float64) *domain.PerformanceReport {
	rep := &domain.PerformanceReport{ExitTypeCounts: make(map[domain.ExitType]int)}

	// Sort deterministically by ExitTime ASC, TradeID ASC
	sorted := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.ExitType == domain.ExitFailed {
			rep.FailedExitCount++
			rep.FailedExitLossUSD += math.Abs(t.PnLUSD)
			continue
		}
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ExitTime != sorted[j].ExitTime {
			return sorted[i].ExitTime < sorted[j].ExitTime
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	daily, values := dailyValues(snapshots), snapshotValues(snapshots)
	if initial > 0 {
		daily = append([]float64{initial}, daily...)
		values = append([]float64{initial}, values...)
	}
	rep.SharpeRatio = computeSharpe(daily)
	rep.MaxDrawdownPct = computeMaxDrawdownPct(values)

	n := len(sorted)
	if n == 0 {
		return rep
	}
	rep.TotalTrades = n

	var gains, losses, gainPcts, lossPcts, holds []float64
	for _, t := range sorted {
		rep.TotalPnLUSD += t.PnLUSD
		rep.ExitTypeCounts[t.ExitType]++
		holds = append(holds, t.HoldDays)

		if t.IsWin() {
			rep.Wins++
			gains = append(gains, t.PnLUSD)
			gainPcts = append(gainPcts, t.PnLPct)
		} else {
			rep.Losses++
			losses = append(losses, -t.PnLUSD)
			lossPcts = append(lossPcts, t.PnLPct)
		}

		if rep.BestTrade == nil || t.PnLPct > rep.BestTrade.PnLPct {
			rep.BestTrade = t
		}
		if rep.WorstTrade == nil || t.PnLPct < rep.WorstTrade.PnLPct {
			rep.WorstTrade = t
		}
	}

	rep.WinRate = computeWinRate(rep.Wins, n) * 100
	rep.TotalTokens, rep.TokenWinRate = computeTokenWinRate(sorted)
	rep.AvgGainPct = computeMean(gainPcts)
	rep.AvgLossPct = computeMean(lossPcts)
	rep.ProfitFactor = computeProfitFactor(sum(gains), sum(losses))

	rep.AvgHoldDays = computeMean(holds)
	sort.Float64s(holds)
	rep.MedianHoldDays = computePercentile(holds, 0.50)

	return rep
}

// computeTokenWinRate groups trades by token and returns
// (totalTokens, tokensWithAWinningExit / totalTokens).
func computeTokenWinRate(trades []*domain.Trade) (int, float64) {
	if len(trades) == 0 {
		return 0, 0
	}

	winning := make(map[string]bool)
	for _, t := range trades {
		if t.IsWin() {
			winning[t.TokenAddress] = true
		} else if _, ok := winning[t.TokenAddress]; !ok {
			winning[t.TokenAddress] = false
		}
	}

	wins := 0
	for _, w := range winning {
		if w {
			wins++
		}
	}
	return len(winning), float64(wins) / float64(len(winning))
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeProfitFactor returns gains / losses. +Inf with gains and no losses, 0 with neither.
func computeProfitFactor(gains, losses float64) float64 {
	if losses == 0 {
		if gains > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return gains / losses
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeSharpe annualizes the mean/stddev of period returns over 365 days.
func computeSharpe(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev == 0 {
		return 0
	}
	return mean / stddev * math.Sqrt(365)
}

// computeMaxDrawdownPct returns the worst (value - running peak) / running peak * 100.
// Values must be in chronological order.
func computeMaxDrawdownPct(values []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak * 100; dd < worst {
			worst = dd
		}
	}
	return worst
}

func sortedSnapshots(snapshots []*domain.PortfolioSnapshot) []*domain.PortfolioSnapshot {
	out := make([]*domain.PortfolioSnapshot, len(snapshots))
	copy(out, snapshots)
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out
}

func snapshotValues(snapshots []*domain.PortfolioSnapshot) []float64 {
	sorted := sortedSnapshots(snapshots)
	values := make([]float64, len(sorted))
	for i, s := range sorted {
		values[i] = s.TotalValueUSD
	}
	return values
}

// dailyValues keeps the last total value of each UTC day.
func dailyValues(snapshots []*domain.PortfolioSnapshot) []float64 {
	var (
		values  []float64
		lastDay string
	)
	for _, s := range sortedSnapshots(snapshots) {
		day := time.UnixMilli(s.TimestampMs).UTC().Format(time.DateOnly)
		if day == lastDay && len(values) > 0 {
			values[len(values)-1] = s.TotalValueUSD
			continue
		}
		values = append(values, s.TotalValueUSD)
		lastDay = day
	}
	return values
}
