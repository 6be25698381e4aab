package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"solana-revival-lab/internal/domain"
)

var tradeHeader = []string{
	"trade_id", "position_id", "token_address", "symbol", "exit_type",
	"entry_time", "exit_time", "entry_price", "exit_price", "sell_pct",
	"quantity_usd", "pnl_usd", "pnl_pct", "fees_usd", "hold_days",
}

var decisionHeader = []string{
	"decision_id", "evaluated_at", "address", "symbol", "composite_score",
	"price_score", "smart_money_score", "volume_score", "social_score",
	"passed", "failure_reason", "detail", "position_id",
}

// WriteTradesCSV writes trades in the given order. Money columns are rounded to cents.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.TradeID,
			t.PositionID,
			t.TokenAddress,
			t.Symbol,
			string(t.ExitType),
			timestamp(t.EntryTime),
			timestamp(t.ExitTime),
			price(t.EntryPrice),
			price(t.ExitPrice),
			pct(t.SellPct),
			money(t.QuantityUSD),
			money(t.PnLUSD),
			pct(t.PnLPct),
			money(t.FeesPaid),
			strconv.FormatFloat(t.HoldDays, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDecisionsCSV writes scan decisions in the given order.
func WriteDecisionsCSV(w io.Writer, decisions []*domain.ScoreDecision) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(decisionHeader); err != nil {
		return err
	}
	for _, d := range decisions {
		row := []string{
			d.DecisionID,
			timestamp(d.EvaluatedAt),
			d.Address,
			d.Symbol,
			score(d.CompositeScore),
			score(d.Components.Price),
			score(d.Components.SmartMoney),
			score(d.Components.Volume),
			score(d.Components.Social),
			strconv.FormatBool(d.Passed),
			string(d.FailureReason),
			d.Detail,
			d.PositionID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func pct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func score(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

// price keeps enough precision for sub-cent tokens.
func price(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func timestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
