// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/monitor"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "solana_revival_lab"

// Outcome label values for decisions.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	Scanned            prometheus.Counter
	Decisions          *prometheus.CounterVec
	ScanRuns           *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	LastSuccessfulScan prometheus.Gauge

	// Position metrics
	PositionsOpened   prometheus.Counter
	PositionsClosed   *prometheus.CounterVec
	RealizedGainsUSD  prometheus.Counter
	RealizedLossesUSD prometheus.Counter

	// Portfolio gauges
	OpenPositions     prometheus.Gauge
	PortfolioValueUSD prometheus.Gauge
	CashBalanceUSD    prometheus.Gauge

	// Provider metrics
	ProviderLatency *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec

	// Monitor metrics
	MonitorCycleDuration prometheus.Histogram
	PricesSkipped        prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses a fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Scan metrics
		Scanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_scanned_total",
			Help:      "Total number of tokens returned by discovery",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "decisions_total",
			Help:      "Total number of score decisions by outcome and failure reason",
		}, []string{"outcome", "reason"}),
		ScanRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan runs by status",
		}, []string{"status"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccessfulScan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),

		// Position metrics
		PositionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "positions_opened_total",
			Help:      "Total number of paper positions opened",
		}),
		PositionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "exits_total",
			Help:      "Total number of exit events by exit type",
		}, []string{"exit_type"}),
		RealizedGainsUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "realized_gains_usd_total",
			Help:      "Sum of positive realized pnl in USD",
		}),
		RealizedLossesUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "realized_losses_usd_total",
			Help:      "Sum of negative realized pnl in USD, as a positive amount",
		}),

		// Portfolio gauges
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		PortfolioValueUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "portfolio_value_usd",
			Help:      "Current total portfolio value in USD",
		}),
		CashBalanceUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "cash_balance_usd",
			Help:      "Current cash balance in USD",
		}),

		// Provider metrics
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_errors_total",
			Help:      "Total number of failed provider requests",
		}, []string{"provider"}),

		// Monitor metrics
		MonitorCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Position monitor cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PricesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "prices_skipped_total",
			Help:      "Total number of positions skipped for lack of a price",
		}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// TokensScanned counts tokens returned by discovery.
func (m *Metrics) TokensScanned(n int) {
	m.Scanned.Add(float64(n))
}

// DecisionRecorded counts a score decision by outcome and reason.
func (m *Metrics) DecisionRecorded(d *domain.ScoreDecision) {
	if d.Passed {
		m.Decisions.WithLabelValues(OutcomePassed, "").Inc()
		return
	}
	m.Decisions.WithLabelValues(OutcomeFailed, string(d.FailureReason)).Inc()
}

// PositionOpened counts a new position.
func (m *Metrics) PositionOpened(*domain.Position) {
	m.PositionsOpened.Inc()
}

// TradeRecorded counts an exit event.
func (m *Metrics) TradeRecorded(t *domain.Trade) {
	m.PositionsClosed.WithLabelValues(string(t.ExitType)).Inc()
	switch {
	case t.PnLUSD > 0:
		m.RealizedGainsUSD.Add(t.PnLUSD)
	case t.PnLUSD < 0:
		m.RealizedLossesUSD.Add(-t.PnLUSD)
	}
}

// UpdatePortfolio sets the portfolio gauges.
func (m *Metrics) UpdatePortfolio(s domain.PortfolioSummary) {
	m.OpenPositions.Set(float64(s.OpenCount))
	m.PortfolioValueUSD.Set(s.TotalValueUSD)
	m.CashBalanceUSD.Set(s.CashBalanceUSD)
}

// ObserveCycle records one monitor cycle.
func (m *Metrics) ObserveCycle(res monitor.CycleResult) {
	m.MonitorCycleDuration.Observe(res.Duration.Seconds())
	m.PricesSkipped.Add(float64(res.Skipped))
	for _, t := range res.Trades {
		m.TradeRecorded(t)
	}
	if s := res.Snapshot; s != nil {
		m.OpenPositions.Set(float64(s.OpenCount))
		m.PortfolioValueUSD.Set(s.TotalValueUSD)
		m.CashBalanceUSD.Set(s.CashBalanceUSD)
	}
}

// ProviderRequest records one provider request attempt.
func (m *Metrics) ProviderRequest(provider string, elapsed time.Duration, err error) {
	m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		m.ProviderErrors.WithLabelValues(provider).Inc()
	}
}

// RecordScan records a scan run.
func (m *Metrics) RecordScan(elapsed time.Duration, err error) {
	m.ScanDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.ScanRuns.WithLabelValues("error").Inc()
		return
	}
	m.ScanRuns.WithLabelValues("success").Inc()
	m.LastSuccessfulScan.Set(float64(time.Now().Unix()))
}
