// Package orchestrator runs one scan of the revival pipeline.
// It coordinates: discovery → prefilter → security → normalization → scoring → paper entry
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-revival-lab/internal/discovery"
	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/idhash"
	"solana-revival-lab/internal/normalization"
	"solana-revival-lab/internal/paper"
	"solana-revival-lab/internal/storage"
)

// DefaultWorkers bounds concurrent provider lookups.
const DefaultWorkers = 3

// CandidateSource lists tokens to evaluate.
type CandidateSource interface {
	Discover(ctx context.Context) ([]domain.Candidate, error)
}

// SecurityFilter checks candidates. Reports are in input order.
type SecurityFilter interface {
	Run(ctx context.Context, candidates []domain.Candidate) ([]domain.SecurityReport, error)
}

// MetricsLoader fetches and normalizes one token.
type MetricsLoader interface {
	Load(ctx context.Context, address string) normalization.Result
}

// Scorer computes a revival score without panicking.
type Scorer interface {
	ScoreSafe(m *domain.TokenMetrics) domain.RevivalScoreResult
}

// Trader opens paper positions.
type Trader interface {
	Open(ctx context.Context, address, symbol string, score float64) (*domain.Position, error)
}

// Observer receives pipeline counts, e.g. for metrics.
type Observer interface {
	TokensScanned(n int)
	DecisionRecorded(d *domain.ScoreDecision)
	PositionOpened(p *domain.Position)
}

// Orchestrator coordinates one scan.
type Orchestrator struct {
	source    CandidateSource
	prefilter *discovery.Prefilter
	security  SecurityFilter
	loader    MetricsLoader
	scorer    Scorer
	trader    Trader
	decisions storage.DecisionStore
	observer  Observer

	minScore float64
	workers  int
	now      func() time.Time
	log      zerolog.Logger
}

// Options for creating an Orchestrator. Prefilter, Security, Trader,
// Decisions and Observer are optional.
type Options struct {
	Source    CandidateSource
	Prefilter *discovery.Prefilter
	Security  SecurityFilter
	Loader    MetricsLoader
	Scorer    Scorer
	Trader    Trader
	Decisions storage.DecisionStore
	Observer  Observer

	// MinScore is the composite score required to open a position.
	MinScore float64
	Workers  int
	Now      func() time.Time
	Logger   zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		source:    opts.Source,
		prefilter: opts.Prefilter,
		security:  opts.Security,
		loader:    opts.Loader,
		scorer:    opts.Scorer,
		trader:    opts.Trader,
		decisions: opts.Decisions,
		observer:  opts.Observer,
		minScore:  opts.MinScore,
		workers:   opts.Workers,
		now:       opts.Now,
		log:       opts.Logger.With().Str("component", "orchestrator").Logger(),
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// RunResult contains results from one scan.
type RunResult struct {
	Discovered     int
	Prefiltered    int
	SecurityPassed int
	Scored         int
	Passed         int

	Decisions  []*domain.ScoreDecision
	Opened     []*domain.Position
	Rejections []*paper.Rejection
	Errors     []string
}

// Run executes one scan. Only a failed discovery aborts the run; every
// per-token failure is recorded and the scan moves on.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Discovery
	candidates, err := o.source.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	result.Discovered = len(candidates)
	if o.observer != nil {
		o.observer.TokensScanned(len(candidates))
	}
	o.log.Info().Int("candidates", len(candidates)).Msg("phase 1: discovery")

	// Phase 2: Market prefilter
	if o.prefilter != nil {
		kept, rejected := o.prefilter.Apply(candidates)
		for _, r := range rejected {
			o.record(ctx, result, &domain.ScoreDecision{
				Address:       r.Candidate.Address,
				Symbol:        r.Candidate.Symbol,
				FailureReason: domain.FailurePrefilter,
				Detail:        r.Reason,
			})
		}
		candidates = kept
	}
	result.Prefiltered = len(candidates)
	o.log.Info().Int("kept", len(candidates)).Msg("phase 2: prefilter")

	// Phase 3: Contract security
	if o.security != nil && len(candidates) > 0 {
		reports, err := o.security.Run(ctx, candidates)
		if err != nil {
			return result, fmt.Errorf("security: %w", err)
		}
		var safe []domain.Candidate
		for i, rep := range reports {
			if rep.Passed {
				safe = append(safe, candidates[i])
				continue
			}
			o.record(ctx, result, &domain.ScoreDecision{
				Address:       candidates[i].Address,
				Symbol:        candidates[i].Symbol,
				FailureReason: domain.FailureSecurity,
				Detail:        rep.Reason,
			})
		}
		candidates = safe
	}
	result.SecurityPassed = len(candidates)
	o.log.Info().Int("passed", len(candidates)).Msg("phase 3: security")

	// Phase 4: Fetch + normalize on a bounded pool
	loaded, err := o.loadAll(ctx, candidates)
	if err != nil {
		return result, err
	}

	// Phase 5: Score sequentially, record, open
	for i, c := range candidates {
		o.evaluate(ctx, result, c, loaded[i])
	}

	o.log.Info().
		Int("scored", result.Scored).
		Int("passed", result.Passed).
		Int("opened", len(result.Opened)).
		Int("errors", len(result.Errors)).
		Msg("scan complete")
	return result, nil
}

// loadAll normalizes every candidate. Results are in input order.
func (o *Orchestrator) loadAll(ctx context.Context, candidates []domain.Candidate) ([]normalization.Result, error) {
	out := make([]normalization.Result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = o.safeLoad(gctx, candidates[i].Address)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}
	return out, nil
}

func (o *Orchestrator) safeLoad(ctx context.Context, address string) (res normalization.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = normalization.Result{Skip: &normalization.SkipReason{
				Reason: domain.FailureException,
				Detail: fmt.Sprintf("panic while loading metrics: %v", r),
			}}
		}
	}()
	return o.loader.Load(ctx, address)
}

// evaluate scores one token, opens a position when it qualifies and records the decision.
func (o *Orchestrator) evaluate(ctx context.Context, result *RunResult, c domain.Candidate, loaded normalization.Result) {
	d := &domain.ScoreDecision{Address: c.Address, Symbol: c.Symbol}

	if !loaded.OK() {
		d.FailureReason = domain.FailureDataUnavailable
		if loaded.Skip != nil {
			d.FailureReason = loaded.Skip.Reason
			d.Detail = loaded.Skip.Detail
		}
		o.log.Warn().Str("address", c.Address).Str("reason", string(d.FailureReason)).Msg("token skipped")
		o.record(ctx, result, d)
		return
	}

	m := loaded.Metrics
	if m.Symbol != "" {
		d.Symbol = m.Symbol
	}

	score := o.scorer.ScoreSafe(m)
	result.Scored++
	d.CompositeScore = score.CompositeScore
	d.Components = score.Components
	d.Passed = score.Passed
	d.FailureReason = score.FailureReason
	d.Detail = score.Detail

	if score.FailureReason == domain.FailureException {
		result.Errors = append(result.Errors, fmt.Sprintf("score %s: %s", c.Address, score.Detail))
	}

	if score.Passed {
		result.Passed++
		if o.trader != nil && score.CompositeScore >= o.minScore {
			o.open(ctx, result, d)
		}
	}

	o.record(ctx, result, d)
}

func (o *Orchestrator) open(ctx context.Context, result *RunResult, d *domain.ScoreDecision) {
	pos, err := o.trader.Open(ctx, d.Address, d.Symbol, d.CompositeScore)
	var rej *paper.Rejection
	switch {
	case errors.As(err, &rej):
		result.Rejections = append(result.Rejections, rej)
		o.log.Info().Str("symbol", d.Symbol).Str("reason", string(rej.Reason)).Msg("entry rejected")
		return
	case err != nil && pos == nil:
		result.Errors = append(result.Errors, fmt.Sprintf("open %s: %v", d.Address, err))
		return
	case err != nil:
		// Opened in memory but not persisted.
		result.Errors = append(result.Errors, fmt.Sprintf("open %s: %v", d.Address, err))
	}

	d.PositionID = pos.ID
	result.Opened = append(result.Opened, pos)
	if o.observer != nil {
		o.observer.PositionOpened(pos)
	}
}

// record stamps and persists a decision. Store failures are collected, not fatal.
func (o *Orchestrator) record(ctx context.Context, result *RunResult, d *domain.ScoreDecision) {
	d.EvaluatedAt = o.now().UnixMilli()
	d.DecisionID = idhash.ComputeDecisionID(d.Address, d.EvaluatedAt)
	result.Decisions = append(result.Decisions, d)

	if o.observer != nil {
		o.observer.DecisionRecorded(d)
	}
	if o.decisions == nil {
		return
	}
	if err := o.decisions.Insert(ctx, d); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		result.Errors = append(result.Errors, fmt.Sprintf("record decision %s: %v", d.Address, err))
		o.log.Warn().Err(err).Str("address", d.Address).Msg("decision not persisted")
	}
}
