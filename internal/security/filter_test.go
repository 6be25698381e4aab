package security

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
	"solana-revival-lab/internal/providers/goplus"
)

type stubChecker struct {
	mu      sync.Mutex
	results map[string]*goplus.TokenSecurity
	err     error
	delay   time.Duration

	inflight    int32
	maxInflight int32
}

func (s *stubChecker) TokenSecurity(ctx context.Context, address string) (*goplus.TokenSecurity, bool, error) {
	n := atomic.AddInt32(&s.inflight, 1)
	defer atomic.AddInt32(&s.inflight, -1)
	for {
		m := atomic.LoadInt32(&s.maxInflight)
		if n <= m || atomic.CompareAndSwapInt32(&s.maxInflight, m, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if s.err != nil {
		return nil, false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[address]
	return r, ok, nil
}

func liquid(addr string) domain.Candidate {
	return domain.Candidate{Address: addr, LiquidityUSD: 50_000, Volume24hUSD: 50_000}
}

func TestCheck_Flags(t *testing.T) {
	checker := &stubChecker{results: map[string]*goplus.TokenSecurity{
		"clean":     {},
		"honeypot":  {IsHoneypot: true},
		"mintable":  {IsMintable: true},
		"blacklist": {IsBlacklisted: true},
		"both":      {IsBlacklisted: true, CanTakeBackOwnership: true},
	}}
	f := NewFilter(checker, DefaultConfig(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		addr   string
		passed bool
		score  int
	}{
		{"clean", true, 100},
		{"honeypot", false, 0},
		{"mintable", false, 50},
		{"blacklist", true, 70},
		{"both", false, 50},
	}
	for _, tt := range tests {
		rep := f.Check(ctx, liquid(tt.addr))
		if rep.Passed != tt.passed || rep.Score != tt.score {
			t.Errorf("%s: passed=%v score=%d, want passed=%v score=%d", tt.addr, rep.Passed, rep.Score, tt.passed, tt.score)
		}
		if !rep.Passed && rep.Reason == "" {
			t.Errorf("%s: expected a reason", tt.addr)
		}
	}
}

func TestCheck_ProviderFailurePassesWithWarning(t *testing.T) {
	f := NewFilter(&stubChecker{err: errors.New("timeout")}, DefaultConfig(), zerolog.Nop())
	rep := f.Check(context.Background(), liquid("x"))
	assert.True(t, rep.Passed)
	assert.Contains(t, rep.Warning, "timeout")
}

func TestCheck_NotCoveredPasses(t *testing.T) {
	f := NewFilter(&stubChecker{}, DefaultConfig(), zerolog.Nop())
	rep := f.Check(context.Background(), liquid("unknown"))
	assert.True(t, rep.Passed)
	assert.NotEmpty(t, rep.Warning)
}

func TestCheck_MarketThresholds(t *testing.T) {
	f := NewFilter(&stubChecker{results: map[string]*goplus.TokenSecurity{"a": {}}}, DefaultConfig(), zerolog.Nop())
	ctx := context.Background()

	low := domain.Candidate{Address: "a", LiquidityUSD: 4_000, Volume24hUSD: 50_000}
	assert.False(t, f.Check(ctx, low).Passed)

	quiet := domain.Candidate{Address: "a", LiquidityUSD: 50_000, Volume24hUSD: 100}
	assert.False(t, f.Check(ctx, quiet).Passed)

	// Unknown market data is not held against the token.
	unknown := domain.Candidate{Address: "a"}
	assert.True(t, f.Check(ctx, unknown).Passed)
}

func TestRun_OrderAndBound(t *testing.T) {
	results := make(map[string]*goplus.TokenSecurity)
	var cands []domain.Candidate
	for _, a := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		results[a] = &goplus.TokenSecurity{}
		cands = append(cands, liquid(a))
	}
	results["d"] = &goplus.TokenSecurity{IsHoneypot: true}

	checker := &stubChecker{results: results, delay: 10 * time.Millisecond}
	f := NewFilter(checker, DefaultConfig(), zerolog.Nop())

	reports, err := f.Run(context.Background(), cands)
	require.NoError(t, err)
	require.Len(t, reports, len(cands))
	for i, r := range reports {
		assert.Equal(t, cands[i].Address, r.Address)
	}
	assert.False(t, reports[3].Passed)
	assert.LessOrEqual(t, atomic.LoadInt32(&checker.maxInflight), int32(3))

	passed := Passed(cands, reports)
	assert.Len(t, passed, 6)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFilter(&stubChecker{}, DefaultConfig(), zerolog.Nop())
	_, err := f.Run(ctx, []domain.Candidate{liquid("a")})
	assert.ErrorIs(t, err, context.Canceled)
}
