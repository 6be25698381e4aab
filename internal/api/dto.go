package api

import (
	"math"

	"solana-revival-lab/internal/domain"
)

type summaryJSON struct {
	TotalValueUSD     float64 `json:"total_value_usd"`
	CashBalanceUSD    float64 `json:"cash_balance_usd"`
	PositionsValueUSD float64 `json:"positions_value_usd"`
	OpenCount         int     `json:"open_positions"`
	PnLUSD            float64 `json:"pnl_usd"`
	PnLPct            float64 `json:"pnl_pct"`
	InitialBalanceUSD float64 `json:"initial_balance_usd"`
}

type positionJSON struct {
	ID               string  `json:"id"`
	TokenAddress     string  `json:"token_address"`
	Symbol           string  `json:"symbol"`
	RevivalScore     float64 `json:"revival_score"`
	Status           string  `json:"status"`
	EntryTime        int64   `json:"entry_time"`
	EntryPrice       float64 `json:"entry_price"`
	StopLossPrice    float64 `json:"stop_loss_price"`
	TakeProfit1Price float64 `json:"take_profit_1_price"`
	TakeProfit2Price float64 `json:"take_profit_2_price"`
	PositionSizeUSD  float64 `json:"position_size_usd"`
	RemainingPct     float64 `json:"remaining_pct"`
	CurrentPrice     float64 `json:"current_price"`
	CurrentPnLPct    float64 `json:"current_pnl_pct"`
	ValueUSD         float64 `json:"value_usd"`
	LastUpdate       int64   `json:"last_update"`
	ClosedAt         int64   `json:"closed_at,omitempty"`
}

type tradeJSON struct {
	TradeID      string  `json:"trade_id"`
	PositionID   string  `json:"position_id"`
	TokenAddress string  `json:"token_address"`
	Symbol       string  `json:"symbol"`
	ExitType     string  `json:"exit_type"`
	EntryPrice   float64 `json:"entry_price"`
	EntryTime    int64   `json:"entry_time"`
	ExitPrice    float64 `json:"exit_price"`
	ExitTime     int64   `json:"exit_time"`
	SellPct      float64 `json:"sell_pct"`
	QuantityUSD  float64 `json:"quantity_usd"`
	PnLUSD       float64 `json:"pnl_usd"`
	PnLPct       float64 `json:"pnl_pct"`
	FeesPaid     float64 `json:"fees_usd"`
	HoldDays     float64 `json:"hold_days"`
}

type componentsJSON struct {
	Price      float64 `json:"price"`
	SmartMoney float64 `json:"smart_money"`
	Volume     float64 `json:"volume"`
	Social     float64 `json:"social"`
}

type decisionJSON struct {
	DecisionID     string         `json:"decision_id"`
	Address        string         `json:"address"`
	Symbol         string         `json:"symbol"`
	EvaluatedAt    int64          `json:"evaluated_at"`
	CompositeScore float64        `json:"composite_score"`
	Components     componentsJSON `json:"components"`
	Passed         bool           `json:"passed"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	Detail         string         `json:"detail,omitempty"`
	PositionID     string         `json:"position_id,omitempty"`
}

type performanceJSON struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate_pct"`
	TotalTokens  int     `json:"total_tokens"`
	TokenWinRate float64 `json:"token_win_rate"`
	TotalPnLUSD  float64 `json:"total_pnl_usd"`
	AvgGainPct   float64 `json:"avg_gain_pct"`
	AvgLossPct   float64 `json:"avg_loss_pct"`
	// ProfitFactor is null when there are gains and no losses.
	ProfitFactor      *float64       `json:"profit_factor"`
	AvgHoldDays       float64        `json:"avg_hold_days"`
	MedianHoldDays    float64        `json:"median_hold_days"`
	SharpeRatio       float64        `json:"sharpe_ratio"`
	MaxDrawdownPct    float64        `json:"max_drawdown_pct"`
	FailedExitCount   int            `json:"failed_exit_count"`
	FailedExitLossUSD float64        `json:"failed_exit_loss_usd"`
	ExitTypeCounts    map[string]int `json:"exit_type_counts"`
	BestTrade         *tradeJSON     `json:"best_trade,omitempty"`
	WorstTrade        *tradeJSON     `json:"worst_trade,omitempty"`
}

func toSummary(s domain.PortfolioSummary) summaryJSON {
	return summaryJSON{
		TotalValueUSD:     s.TotalValueUSD,
		CashBalanceUSD:    s.CashBalanceUSD,
		PositionsValueUSD: s.PositionsValueUSD,
		OpenCount:         s.OpenCount,
		PnLUSD:            s.PnLUSD,
		PnLPct:            s.PnLPct,
		InitialBalanceUSD: s.InitialBalanceUSD,
	}
}

func toPosition(p *domain.Position) positionJSON {
	return positionJSON{
		ID:               p.ID,
		TokenAddress:     p.TokenAddress,
		Symbol:           p.Symbol,
		RevivalScore:     p.RevivalScore,
		Status:           string(p.Status),
		EntryTime:        p.EntryTime,
		EntryPrice:       p.EntryPrice,
		StopLossPrice:    p.StopLossPrice,
		TakeProfit1Price: p.TakeProfit1Price,
		TakeProfit2Price: p.TakeProfit2Price,
		PositionSizeUSD:  p.PositionSizeUSD,
		RemainingPct:     p.RemainingPct,
		CurrentPrice:     p.CurrentPrice,
		CurrentPnLPct:    p.CurrentPnLPct,
		ValueUSD:         p.RemainingValueUSD(),
		LastUpdate:       p.LastUpdate,
		ClosedAt:         p.ClosedAt,
	}
}

func toTrade(t *domain.Trade) tradeJSON {
	return tradeJSON{
		TradeID:      t.TradeID,
		PositionID:   t.PositionID,
		TokenAddress: t.TokenAddress,
		Symbol:       t.Symbol,
		ExitType:     string(t.ExitType),
		EntryPrice:   t.EntryPrice,
		EntryTime:    t.EntryTime,
		ExitPrice:    t.ExitPrice,
		ExitTime:     t.ExitTime,
		SellPct:      t.SellPct,
		QuantityUSD:  t.QuantityUSD,
		PnLUSD:       t.PnLUSD,
		PnLPct:       t.PnLPct,
		FeesPaid:     t.FeesPaid,
		HoldDays:     t.HoldDays,
	}
}

func toDecision(d *domain.ScoreDecision) decisionJSON {
	return decisionJSON{
		DecisionID:     d.DecisionID,
		Address:        d.Address,
		Symbol:         d.Symbol,
		EvaluatedAt:    d.EvaluatedAt,
		CompositeScore: d.CompositeScore,
		Components: componentsJSON{
			Price:      d.Components.Price,
			SmartMoney: d.Components.SmartMoney,
			Volume:     d.Components.Volume,
			Social:     d.Components.Social,
		},
		Passed:        d.Passed,
		FailureReason: string(d.FailureReason),
		Detail:        d.Detail,
		PositionID:    d.PositionID,
	}
}

// toPerformance maps the report, replacing non-finite values that JSON cannot encode.
func toPerformance(r *domain.PerformanceReport) performanceJSON {
	out := performanceJSON{
		TotalTrades:       r.TotalTrades,
		Wins:              r.Wins,
		Losses:            r.Losses,
		WinRate:           r.WinRate,
		TotalTokens:       r.TotalTokens,
		TokenWinRate:      r.TokenWinRate,
		TotalPnLUSD:       r.TotalPnLUSD,
		AvgGainPct:        r.AvgGainPct,
		AvgLossPct:        r.AvgLossPct,
		AvgHoldDays:       r.AvgHoldDays,
		MedianHoldDays:    r.MedianHoldDays,
		SharpeRatio:       finite(r.SharpeRatio),
		MaxDrawdownPct:    finite(r.MaxDrawdownPct),
		FailedExitCount:   r.FailedExitCount,
		FailedExitLossUSD: r.FailedExitLossUSD,
		ExitTypeCounts:    make(map[string]int, len(r.ExitTypeCounts)),
	}
	if !math.IsInf(r.ProfitFactor, 0) && !math.IsNaN(r.ProfitFactor) {
		pf := r.ProfitFactor
		out.ProfitFactor = &pf
	}
	for et, n := range r.ExitTypeCounts {
		out.ExitTypeCounts[string(et)] = n
	}
	if r.BestTrade != nil {
		t := toTrade(r.BestTrade)
		out.BestTrade = &t
	}
	if r.WorstTrade != nil {
		t := toTrade(r.WorstTrade)
		out.WorstTrade = &t
	}
	return out
}

func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
