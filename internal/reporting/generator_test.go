package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage/memory"
)

const dayMs = int64(24 * 60 * 60 * 1000)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestData(t *testing.T) *Generator {
	t.Helper()
	ctx := context.Background()

	positions := memory.NewPositionStore()
	trades := memory.NewTradeStore()
	snapshots := memory.NewSnapshotStore()
	decisions := memory.NewDecisionStore()

	base := fixedNow.Add(-5 * 24 * time.Hour).UnixMilli()

	open := &domain.Position{
		ID: "p-open", TokenAddress: "mintB", Symbol: "BBB", RevivalScore: 0.62,
		EntryTime: base, EntryPrice: 0.0012, CurrentPrice: 0.0015, CurrentPnLPct: 25,
		RemainingPct: 100, Status: domain.PositionOpen,
	}
	closed := &domain.Position{
		ID: "p-closed", TokenAddress: "mintA", Symbol: "AAA", EntryTime: base,
		Status: domain.PositionClosed, ClosedAt: base + 2*dayMs,
	}
	for _, p := range []*domain.Position{open, closed} {
		if err := positions.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert position failed: %v", err)
		}
	}

	for _, tr := range []*domain.Trade{
		{TradeID: "t1", PositionID: "p-closed", TokenAddress: "mintA", Symbol: "AAA", ExitType: domain.ExitTakeProfit1,
			EntryTime: base, ExitTime: base + dayMs, EntryPrice: 1, ExitPrice: 1.35, SellPct: 40,
			QuantityUSD: 399.6, PnLUSD: 135.123, PnLPct: 33.8, FeesPaid: 1.6, HoldDays: 1},
		{TradeID: "t2", PositionID: "p-closed", TokenAddress: "mintA", Symbol: "AAA", ExitType: domain.ExitStopLoss,
			EntryTime: base, ExitTime: base + 2*dayMs, EntryPrice: 1, ExitPrice: 0.8, SellPct: 100,
			QuantityUSD: 599.4, PnLUSD: -125.555, PnLPct: -20.9, FeesPaid: 1.9, HoldDays: 2},
	} {
		if err := trades.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert trade failed: %v", err)
		}
	}

	for i, v := range []float64{10_000, 9_800, 10_050} {
		if err := snapshots.Insert(ctx, &domain.PortfolioSnapshot{TimestampMs: base + int64(i)*dayMs, TotalValueUSD: v}); err != nil {
			t.Fatalf("Insert snapshot failed: %v", err)
		}
	}

	for _, d := range []*domain.ScoreDecision{
		{DecisionID: "d1", Address: "mintA", Symbol: "AAA", EvaluatedAt: base, CompositeScore: 0.71, Passed: true, PositionID: "p-closed",
			Components: domain.ComponentScores{Price: 0.8, SmartMoney: 0.5, Volume: 0.9, Social: 0.5}},
		{DecisionID: "d2", Address: "mintC", Symbol: "CCC", EvaluatedAt: base + 1, FailureReason: domain.FailureLowVolume, Detail: "volume, flat"},
		{DecisionID: "d3", Address: "mintD", EvaluatedAt: base + 2, FailureReason: domain.FailurePrefilter},
		{DecisionID: "d4", Address: "mintE", EvaluatedAt: base + 3, FailureReason: domain.FailurePrefilter},
	} {
		if err := decisions.Insert(ctx, d); err != nil {
			t.Fatalf("Insert decision failed: %v", err)
		}
	}

	return NewGenerator(positions, trades, snapshots, decisions, 10_000).
		WithClock(func() time.Time { return fixedNow })
}

func TestGenerator_Generate(t *testing.T) {
	gen := setupTestData(t)

	report, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt: expected %v, got %v", fixedNow, report.GeneratedAt)
	}
	if report.FinalValueUSD != 10_050 {
		t.Errorf("FinalValueUSD: expected 10050, got %v", report.FinalValueUSD)
	}
	if report.ReturnPct < 0.499 || report.ReturnPct > 0.501 {
		t.Errorf("ReturnPct: expected 0.5, got %v", report.ReturnPct)
	}
	if len(report.OpenPositions) != 1 || report.OpenPositions[0].ID != "p-open" {
		t.Errorf("expected only the open position, got %v", report.OpenPositions)
	}
	if report.Performance.TotalTrades != 2 || report.Performance.Wins != 1 {
		t.Errorf("unexpected performance %+v", report.Performance)
	}
	if report.Performance.MaxDrawdownPct >= 0 {
		t.Errorf("expected negative drawdown, got %v", report.Performance.MaxDrawdownPct)
	}

	d := report.Decisions
	if d.Total != 4 || d.Passed != 1 || d.Opened != 1 {
		t.Errorf("unexpected decision summary %+v", d)
	}
	if d.ByReason[domain.FailurePrefilter] != 2 || d.ByReason[domain.FailureLowVolume] != 1 {
		t.Errorf("unexpected reasons %v", d.ByReason)
	}

	start := fixedNow.Add(-5 * 24 * time.Hour).UnixMilli()
	if report.PeriodStart != start || report.PeriodEnd != start+2*dayMs {
		t.Errorf("unexpected period %d..%d", report.PeriodStart, report.PeriodEnd)
	}
}

func TestGenerator_EmptyStores(t *testing.T) {
	gen := NewGenerator(memory.NewPositionStore(), memory.NewTradeStore(), memory.NewSnapshotStore(), memory.NewDecisionStore(), 5_000)

	report, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.FinalValueUSD != 5_000 || report.ReturnPct != 0 {
		t.Errorf("empty session should report the initial balance, got %+v", report)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{"No closed trades.", "No open positions.", "No decisions recorded."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	report, err := setupTestData(t).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Paper Trading Performance Report",
		"Generated: 2025-03-10T12:00:00Z",
		"| Initial Balance | $10000.00 |",
		"| Final Value | $10050.00 |",
		"| Total Trades | 2 |",
		"| Win Rate | 50.00% |",
		"| Total PnL | $9.57 |",
		"| stop_loss | 1 |",
		"| take_profit_1 | 1 |",
		"Best trade: AAA take_profit_1 33.80%",
		"| BBB | 0.0012 | 0.0015 | 25.00 | 100.00 | 0.62 |",
		"Evaluated: 4 | Passed: 1 | Opened: 1",
		"| PREFILTER | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Exit types are sorted for deterministic output.
	if strings.Index(md, "| stop_loss |") > strings.Index(md, "| take_profit_1 |") {
		t.Error("exit types not sorted")
	}
}

func TestRenderMarkdown_InfiniteProfitFactor(t *testing.T) {
	r := &Report{Performance: &domain.PerformanceReport{TotalTrades: 1, Wins: 1, ProfitFactor: math.Inf(1)}}
	if md := RenderMarkdown(r); !strings.Contains(md, "| Profit Factor | inf |") {
		t.Errorf("expected inf profit factor, got:\n%s", md)
	}
}

func TestWriteTradesCSV(t *testing.T) {
	trades := []*domain.Trade{{
		TradeID: "t1", PositionID: "p1", TokenAddress: "mintA", Symbol: "AAA", ExitType: domain.ExitTakeProfit1,
		EntryTime: 1_700_000_000_000, ExitTime: 1_700_086_400_000, EntryPrice: 0.00001234, ExitPrice: 0.0000166,
		SellPct: 40, QuantityUSD: 399.6, PnLUSD: 135.125, PnLPct: 33.8049, FeesPaid: 1.6, HoldDays: 1,
	}}

	var buf bytes.Buffer
	if err := WriteTradesCSV(&buf, trades); err != nil {
		t.Fatalf("WriteTradesCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if len(rows[0]) != len(tradeHeader) || rows[0][0] != "trade_id" {
		t.Errorf("unexpected header %v", rows[0])
	}

	row := rows[1]
	expect := map[int]string{
		4:  "take_profit_1",
		5:  "2023-11-14T22:13:20Z",
		7:  "0.00001234",
		10: "399.60",
		11: "135.13",
		12: "33.80",
		13: "1.60",
		14: "1.00",
	}
	for idx, want := range expect {
		if row[idx] != want {
			t.Errorf("column %s: expected %q, got %q", tradeHeader[idx], want, row[idx])
		}
	}
}

func TestWriteDecisionsCSV_QuotesDetail(t *testing.T) {
	decisions := []*domain.ScoreDecision{
		{DecisionID: "d1", Address: "mintC", EvaluatedAt: 0, FailureReason: domain.FailureLowVolume, Detail: "volume, flat"},
	}

	var buf bytes.Buffer
	if err := WriteDecisionsCSV(&buf, decisions); err != nil {
		t.Fatalf("WriteDecisionsCSV failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"volume, flat"`) {
		t.Errorf("detail with comma must be quoted:\n%s", buf.String())
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if rows[1][1] != "" {
		t.Errorf("zero timestamp should be empty, got %q", rows[1][1])
	}
	if rows[1][4] != "0.0000" || rows[1][9] != "false" || rows[1][10] != "LOW_VOLUME" {
		t.Errorf("unexpected row %v", rows[1])
	}
}

func TestGenerator_WriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	if _, err := setupTestData(t).WriteFiles(context.Background(), dir); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}

	for _, name := range []string{ReportFile, TradesFile, DecisionsFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, DecisionsFile))
	if lines := strings.Count(string(data), "\n"); lines != 5 {
		t.Errorf("decisions.csv: expected 5 lines, got %d", lines)
	}
}
