package reporting

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"solana-revival-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	p := r.Performance
	if p == nil {
		p = &domain.PerformanceReport{}
	}

	// Header
	sb.WriteString("# Paper Trading Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.PeriodStart > 0 {
		sb.WriteString(fmt.Sprintf("Period: %s to %s\n\n", formatMs(r.PeriodStart), formatMs(r.PeriodEnd)))
	}

	// Portfolio
	sb.WriteString("## Portfolio\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Balance | $%s |\n", money(r.InitialBalanceUSD)))
	sb.WriteString(fmt.Sprintf("| Final Value | $%s |\n", money(r.FinalValueUSD)))
	sb.WriteString(fmt.Sprintf("| Return | %s%% |\n", pct(r.ReturnPct)))
	sb.WriteString(fmt.Sprintf("| Open Positions | %d |\n", len(r.OpenPositions)))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trade Statistics\n\n")
	if p.TotalTrades == 0 && p.FailedExitCount == 0 {
		sb.WriteString("No closed trades.\n\n")
	} else {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", p.TotalTrades))
		sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", p.Wins, p.Losses))
		sb.WriteString(fmt.Sprintf("| Win Rate | %s%% |\n", pct(p.WinRate)))
		sb.WriteString(fmt.Sprintf("| Token Win Rate | %s%% (%d tokens) |\n", pct(p.TokenWinRate*100), p.TotalTokens))
		sb.WriteString(fmt.Sprintf("| Total PnL | $%s |\n", money(p.TotalPnLUSD)))
		sb.WriteString(fmt.Sprintf("| Avg Gain | %s%% |\n", pct(p.AvgGainPct)))
		sb.WriteString(fmt.Sprintf("| Avg Loss | %s%% |\n", pct(p.AvgLossPct)))
		sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", ratio(p.ProfitFactor)))
		sb.WriteString(fmt.Sprintf("| Avg Hold | %.2f days |\n", p.AvgHoldDays))
		sb.WriteString(fmt.Sprintf("| Median Hold | %.2f days |\n", p.MedianHoldDays))
		sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", ratio(p.SharpeRatio)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %s%% |\n", pct(p.MaxDrawdownPct)))
		sb.WriteString(fmt.Sprintf("| Failed Exits | %d ($%s lost) |\n", p.FailedExitCount, money(p.FailedExitLossUSD)))
		sb.WriteString("\n")

		if len(p.ExitTypeCounts) > 0 {
			sb.WriteString("### Exit Types\n\n")
			sb.WriteString("| Exit | Count |\n")
			sb.WriteString("|------|-------|\n")
			types := make([]string, 0, len(p.ExitTypeCounts))
			for et := range p.ExitTypeCounts {
				types = append(types, string(et))
			}
			sort.Strings(types)
			for _, et := range types {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", et, p.ExitTypeCounts[domain.ExitType(et)]))
			}
			sb.WriteString("\n")
		}

		if p.BestTrade != nil {
			sb.WriteString(fmt.Sprintf("Best trade: %s %s %s%% ($%s)\n\n",
				p.BestTrade.Symbol, p.BestTrade.ExitType, pct(p.BestTrade.PnLPct), money(p.BestTrade.PnLUSD)))
		}
		if p.WorstTrade != nil {
			sb.WriteString(fmt.Sprintf("Worst trade: %s %s %s%% ($%s)\n\n",
				p.WorstTrade.Symbol, p.WorstTrade.ExitType, pct(p.WorstTrade.PnLPct), money(p.WorstTrade.PnLUSD)))
		}
	}

	// Open positions
	sb.WriteString("## Open Positions\n\n")
	if len(r.OpenPositions) > 0 {
		sb.WriteString("| Symbol | Entry | Current | PnL% | Remaining% | Score |\n")
		sb.WriteString("|--------|-------|---------|------|------------|-------|\n")
		for _, pos := range r.OpenPositions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.2f |\n",
				pos.Symbol, price(pos.EntryPrice), price(pos.CurrentPrice),
				pct(pos.CurrentPnLPct), pct(pos.RemainingPct), pos.RevivalScore))
		}
	} else {
		sb.WriteString("No open positions.\n")
	}
	sb.WriteString("\n")

	// Scan decisions
	sb.WriteString("## Scan Decisions\n\n")
	d := r.Decisions
	if d.Total == 0 {
		sb.WriteString("No decisions recorded.\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Evaluated: %d | Passed: %d | Opened: %d\n\n", d.Total, d.Passed, d.Opened))
	if len(d.ByReason) > 0 {
		sb.WriteString("| Failure Reason | Count |\n")
		sb.WriteString("|----------------|-------|\n")
		reasons := make([]string, 0, len(d.ByReason))
		for reason := range d.ByReason {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", reason, d.ByReason[domain.FailureReason(reason)]))
		}
	}

	return sb.String()
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
