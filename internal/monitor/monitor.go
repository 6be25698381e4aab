// Package monitor polls open positions and applies exits.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/paper"
)

// Defaults
const (
	DefaultInterval      = 30 * time.Second
	DefaultLookupTimeout = 15 * time.Second
	DefaultWorkers       = 5
)

// Book is the position surface the monitor drives.
type Book interface {
	OpenPositions() []*domain.Position
	Mark(ctx context.Context, id string, price float64) error
	EvaluateExit(id string, price float64) (domain.ExitType, bool, error)
	Close(ctx context.Context, id string, exitType domain.ExitType, price float64) (*domain.Trade, error)
	Snapshot(ctx context.Context) (*domain.PortfolioSnapshot, error)
}

// Subscriber keeps a live price feed subscribed to the given tokens.
type Subscriber interface {
	Sync(addresses []string) error
}

// CycleResult summarizes one poll.
type CycleResult struct {
	Checked  int
	Skipped  int
	Trades   []*domain.Trade
	Snapshot *domain.PortfolioSnapshot
	Duration time.Duration
}

// Options configures a Monitor.
type Options struct {
	Book          Book
	Prices        paper.PriceSource
	Stream        Subscriber
	Interval      time.Duration
	LookupTimeout time.Duration
	Workers       int
	// OnCycle is called after every cycle, e.g. to record metrics.
	OnCycle func(CycleResult)
	Logger  zerolog.Logger
}

// Monitor runs the exit loop.
type Monitor struct {
	book          Book
	prices        paper.PriceSource
	stream        Subscriber
	interval      time.Duration
	lookupTimeout time.Duration
	workers       int
	onCycle       func(CycleResult)
	log           zerolog.Logger
}

// New creates a monitor.
func New(opts Options) *Monitor {
	m := &Monitor{
		book:          opts.Book,
		prices:        opts.Prices,
		stream:        opts.Stream,
		interval:      opts.Interval,
		lookupTimeout: opts.LookupTimeout,
		workers:       opts.Workers,
		onCycle:       opts.OnCycle,
		log:           opts.Logger.With().Str("component", "monitor").Logger(),
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.lookupTimeout <= 0 {
		m.lookupTimeout = DefaultLookupTimeout
	}
	if m.workers <= 0 {
		m.workers = DefaultWorkers
	}
	return m
}

// Run polls until ctx is cancelled. A cycle in progress always completes;
// cancellation only prevents the next one from starting.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.interval).Msg("monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.RunOnce(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			m.log.Info().Msg("monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce evaluates every open position once. Positions whose price
// cannot be fetched are skipped until the next cycle.
func (m *Monitor) RunOnce(ctx context.Context) CycleResult {
	start := time.Now()
	positions := m.book.OpenPositions()
	res := CycleResult{}

	if m.stream != nil {
		addrs := make([]string, 0, len(positions))
		for _, p := range positions {
			addrs = append(addrs, p.TokenAddress)
		}
		if err := m.stream.Sync(addrs); err != nil {
			m.log.Warn().Err(err).Msg("price stream sync failed")
		}
	}

	prices := m.fetchPrices(ctx, positions)

	for _, pos := range positions {
		price, ok := prices[pos.ID]
		if !ok {
			res.Skipped++
			continue
		}
		res.Checked++

		trade, err := m.evaluate(ctx, pos, price)
		if err != nil {
			if !errors.Is(err, paper.ErrPositionClosed) && !errors.Is(err, paper.ErrPositionNotFound) {
				m.log.Warn().Err(err).Str("position", pos.ID).Msg("position check failed")
			}
		}
		if trade != nil {
			res.Trades = append(res.Trades, trade)
		}
	}

	snap, err := m.book.Snapshot(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("portfolio snapshot failed")
	}
	res.Snapshot = snap
	res.Duration = time.Since(start)

	m.log.Debug().
		Int("checked", res.Checked).
		Int("skipped", res.Skipped).
		Int("exits", len(res.Trades)).
		Dur("took", res.Duration).
		Msg("monitor cycle")

	if m.onCycle != nil {
		m.onCycle(res)
	}
	return res
}

// evaluate marks the position and closes it when an exit fires.
func (m *Monitor) evaluate(ctx context.Context, pos *domain.Position, price float64) (*domain.Trade, error) {
	if err := m.book.Mark(ctx, pos.ID, price); err != nil {
		return nil, err
	}
	exitType, ok, err := m.book.EvaluateExit(pos.ID, price)
	if err != nil || !ok {
		return nil, err
	}
	return m.book.Close(ctx, pos.ID, exitType, price)
}

// fetchPrices looks up prices on a bounded pool. Failed lookups are absent from the map.
func (m *Monitor) fetchPrices(ctx context.Context, positions []*domain.Position) map[string]float64 {
	var (
		mu  sync.Mutex
		out = make(map[string]float64, len(positions))
	)

	var g errgroup.Group
	g.SetLimit(m.workers)
	for _, pos := range positions {
		pos := pos
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
			defer cancel()

			price, err := m.prices.Price(lctx, pos.TokenAddress)
			if err != nil || price <= 0 {
				m.log.Warn().Err(err).Str("symbol", pos.Symbol).Float64("price", price).Msg("price unavailable, skipping position this cycle")
				return nil
			}
			mu.Lock()
			out[pos.ID] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
