package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/metrics"
	"solana-revival-lab/internal/storage"
)

// Output file names written by WriteFiles.
const (
	ReportFile    = "performance.md"
	TradesFile    = "trades.csv"
	DecisionsFile = "decisions.csv"
)

// Generator produces reports from stored data.
type Generator struct {
	positions storage.PositionStore
	trades    storage.TradeStore
	snapshots storage.SnapshotStore
	decisions storage.DecisionStore
	initial   float64
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	positions storage.PositionStore,
	trades storage.TradeStore,
	snapshots storage.SnapshotStore,
	decisions storage.DecisionStore,
	initialBalance float64,
) *Generator {
	return &Generator{
		positions: positions,
		trades:    trades,
		snapshots: snapshots,
		decisions: decisions,
		initial:   initialBalance,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete performance report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	data, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	return g.build(data), nil
}

type reportData struct {
	positions []*domain.Position
	trades    []*domain.Trade
	snapshots []*domain.PortfolioSnapshot
	decisions []*domain.ScoreDecision
}

func (g *Generator) load(ctx context.Context) (*reportData, error) {
	end := g.now().UnixMilli()

	positions, err := g.positions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	trades, err := g.trades.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	snapshots, err := g.snapshots.List(ctx, 0, end)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	decisions, err := g.decisions.List(ctx, 0, end)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return &reportData{positions: positions, trades: trades, snapshots: snapshots, decisions: decisions}, nil
}

func (g *Generator) build(d *reportData) *Report {
	r := &Report{
		GeneratedAt:       g.now(),
		InitialBalanceUSD: g.initial,
		FinalValueUSD:     g.initial,
		OpenPositions:     d.positions,
		Performance:       metrics.Analyze(d.trades, d.snapshots, g.initial),
		Decisions:         summarizeDecisions(d.decisions),
	}

	if n := len(d.snapshots); n > 0 {
		r.FinalValueUSD = d.snapshots[n-1].TotalValueUSD
	}
	if g.initial > 0 {
		r.ReturnPct = (r.FinalValueUSD - g.initial) / g.initial * 100
	}

	var times []int64
	for _, s := range d.snapshots {
		times = append(times, s.TimestampMs)
	}
	for _, t := range d.trades {
		times = append(times, t.ExitTime)
	}
	if len(times) > 0 {
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		r.PeriodStart, r.PeriodEnd = times[0], times[len(times)-1]
	}
	return r
}

func summarizeDecisions(decisions []*domain.ScoreDecision) DecisionSummary {
	s := DecisionSummary{Total: len(decisions), ByReason: make(map[domain.FailureReason]int)}
	for _, d := range decisions {
		if d.Passed {
			s.Passed++
		} else {
			s.ByReason[d.FailureReason]++
		}
		if d.PositionID != "" {
			s.Opened++
		}
	}
	return s
}

// WriteFiles writes the markdown report and the CSV exports into dir.
func (g *Generator) WriteFiles(ctx context.Context, dir string) (*Report, error) {
	data, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	r := g.build(data)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ReportFile), []byte(RenderMarkdown(r)), 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := writeCSVFile(filepath.Join(dir, TradesFile), func(f *os.File) error {
		return WriteTradesCSV(f, data.trades)
	}); err != nil {
		return nil, err
	}
	if err := writeCSVFile(filepath.Join(dir, DecisionsFile), func(f *os.File) error {
		return WriteDecisionsCSV(f, data.decisions)
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func writeCSVFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
