package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/monitor"
	"solana-revival-lab/internal/orchestrator"
	"solana-revival-lab/internal/providers"
)

var (
	_ orchestrator.Observer = (*Metrics)(nil)
	_ providers.Observer    = (*Metrics)(nil).ProviderRequest
)

func TestMetrics_ScanCounters(t *testing.T) {
	m := NewMetrics("", prometheus.NewRegistry())

	m.TokensScanned(12)
	m.DecisionRecorded(&domain.ScoreDecision{Passed: true})
	m.DecisionRecorded(&domain.ScoreDecision{FailureReason: domain.FailurePrefilter})
	m.DecisionRecorded(&domain.ScoreDecision{FailureReason: domain.FailurePrefilter})
	m.PositionOpened(&domain.Position{})

	assert.Equal(t, 12.0, testutil.ToFloat64(m.Scanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues(OutcomePassed, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues(OutcomeFailed, "PREFILTER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PositionsOpened))
}

func TestMetrics_ObserveCycle(t *testing.T) {
	m := NewMetrics("", nil)

	m.ObserveCycle(monitor.CycleResult{
		Checked:  3,
		Skipped:  1,
		Duration: 250 * time.Millisecond,
		Trades: []*domain.Trade{
			{ExitType: domain.ExitTakeProfit1, PnLUSD: 120},
			{ExitType: domain.ExitStopLoss, PnLUSD: -80},
		},
		Snapshot: &domain.PortfolioSnapshot{TotalValueUSD: 10_040, CashBalanceUSD: 8_040, OpenCount: 2},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PositionsClosed.WithLabelValues("take_profit_1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PositionsClosed.WithLabelValues("stop_loss")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.RealizedGainsUSD))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.RealizedLossesUSD))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PricesSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpenPositions))
	assert.Equal(t, 10_040.0, testutil.ToFloat64(m.PortfolioValueUSD))
	assert.Equal(t, 8_040.0, testutil.ToFloat64(m.CashBalanceUSD))
}

func TestMetrics_ProviderRequest(t *testing.T) {
	m := NewMetrics("test", nil)

	m.ProviderRequest("birdeye", 20*time.Millisecond, nil)
	m.ProviderRequest("birdeye", 30*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("birdeye")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderLatency))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("", nil)
	m.RecordScan(2*time.Second, nil)
	m.UpdatePortfolio(domain.PortfolioSummary{TotalValueUSD: 9_500, CashBalanceUSD: 9_500})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `solana_revival_lab_scan_runs_total{status="success"} 1`), text)
	assert.True(t, strings.Contains(text, "solana_revival_lab_paper_portfolio_value_usd 9500"), text)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	require.NotPanics(t, func() {
		NewMetrics("", nil)
		NewMetrics("", nil)
	})
}
