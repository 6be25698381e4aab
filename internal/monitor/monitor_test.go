package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/execution"
	"solana-revival-lab/internal/paper"
)

type noFail struct{}

func (noFail) Float64() float64 { return 0.99 }

type prices struct {
	mu     sync.Mutex
	values map[string]float64
	calls  int32
}

func (p *prices) set(addr string, v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[addr] = v
}

func (p *prices) Price(_ context.Context, addr string) (float64, error) {
	atomic.AddInt32(&p.calls, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[addr]
	if !ok {
		return 0, errors.New("lookup failed")
	}
	return v, nil
}

type recordingStream struct {
	synced [][]string
}

func (r *recordingStream) Sync(addrs []string) error {
	r.synced = append(r.synced, addrs)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newManager(t *testing.T, src *prices) *paper.Manager {
	t.Helper()
	cfg := paper.DefaultConfig()
	c := &clock{now: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	m, err := paper.NewManager(paper.Options{
		Config:    cfg,
		Prices:    src,
		Simulator: execution.NewSimulator(cfg.Execution, noFail{}),
		Now:       c.Now,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return m
}

func TestRunOnce_ExitsAndSkips(t *testing.T) {
	src := &prices{values: map[string]float64{"up": 1.0, "down": 1.0, "flat": 1.0, "gone": 1.0}}
	mgr := newManager(t, src)
	ctx := context.Background()

	for _, a := range []string{"up", "down", "flat", "gone"} {
		_, err := mgr.Open(ctx, a, a, 0.5)
		require.NoError(t, err)
	}

	src.set("up", 1.5)   // TP1
	src.set("down", 0.5) // stop loss
	src.set("flat", 1.05)
	src.mu.Lock()
	delete(src.values, "gone")
	src.mu.Unlock()

	stream := &recordingStream{}
	var observed []CycleResult
	mon := New(Options{
		Book:    mgr,
		Prices:  src,
		Stream:  stream,
		OnCycle: func(r CycleResult) { observed = append(observed, r) },
		Logger:  zerolog.Nop(),
	})

	res := mon.RunOnce(ctx)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Trades, 2)
	require.NotNil(t, res.Snapshot)
	require.Len(t, observed, 1)

	exits := map[domain.ExitType]bool{}
	for _, tr := range res.Trades {
		exits[tr.ExitType] = true
	}
	assert.True(t, exits[domain.ExitTakeProfit1])
	assert.True(t, exits[domain.ExitStopLoss])

	require.Len(t, stream.synced, 1)
	assert.Len(t, stream.synced[0], 4)

	// "down" closed, "up" partially exited, "gone" kept for the next cycle.
	open := mgr.OpenPositions()
	assert.Len(t, open, 3)
	for _, p := range open {
		if p.TokenAddress == "flat" {
			assert.InDelta(t, 1.05, p.CurrentPrice, 1e-12)
		}
	}

	// Price recovers: the skipped position is checked again.
	src.set("gone", 1.0)
	res = mon.RunOnce(ctx)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 3, res.Checked)
	assert.Empty(t, res.Trades)
}

func TestRunOnce_NoPositions(t *testing.T) {
	src := &prices{values: map[string]float64{}}
	mon := New(Options{Book: newManager(t, src), Prices: src, Logger: zerolog.Nop()})

	res := mon.RunOnce(context.Background())
	assert.Equal(t, 0, res.Checked)
	assert.NotNil(t, res.Snapshot)
	assert.Equal(t, int32(0), atomic.LoadInt32(&src.calls))
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &prices{values: map[string]float64{}}
	var cycles int32
	mon := New(Options{
		Book:     newManager(t, src),
		Prices:   src,
		Interval: 10 * time.Millisecond,
		OnCycle:  func(CycleResult) { atomic.AddInt32(&cycles, 1) },
		Logger:   zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&cycles), int32(2))
}
