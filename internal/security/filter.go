// Package security screens candidates for contract-level rug risks.
package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/providers/goplus"
)

// Risk points per flag.
const (
	HoneypotRisk      = 100
	MintableRisk      = 50
	BlacklistRisk     = 30
	TakeOwnershipRisk = 20
)

// Checker returns GoPlus flags. ok is false when the token is not covered.
type Checker interface {
	TokenSecurity(ctx context.Context, address string) (*goplus.TokenSecurity, bool, error)
}

// Config holds the filter thresholds.
type Config struct {
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MinVolume24hUSD float64 `yaml:"min_volume_24h_usd"`
	MinScore        int     `yaml:"min_score"`
	Workers         int     `yaml:"workers"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		MinLiquidityUSD: 5_000,
		MinVolume24hUSD: 5_000,
		MinScore:        60,
		Workers:         3,
	}
}

// Filter runs the market and contract checks.
type Filter struct {
	checker Checker
	cfg     Config
	log     zerolog.Logger
}

// NewFilter creates a filter. A nil checker skips the contract check with a warning.
func NewFilter(checker Checker, cfg Config, logger zerolog.Logger) *Filter {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Filter{
		checker: checker,
		cfg:     cfg,
		log:     logger.With().Str("component", "security").Logger(),
	}
}

// Check evaluates one candidate. It never returns an error: provider
// failures pass the token with a warning.
func (f *Filter) Check(ctx context.Context, c domain.Candidate) domain.SecurityReport {
	rep := domain.SecurityReport{Address: c.Address, Score: 100}

	if c.LiquidityUSD > 0 && c.LiquidityUSD < f.cfg.MinLiquidityUSD {
		rep.Reason = fmt.Sprintf("liquidity $%.0f below $%.0f", c.LiquidityUSD, f.cfg.MinLiquidityUSD)
		return rep
	}
	if c.Volume24hUSD > 0 && c.Volume24hUSD < f.cfg.MinVolume24hUSD {
		rep.Reason = fmt.Sprintf("24h volume $%.0f below $%.0f", c.Volume24hUSD, f.cfg.MinVolume24hUSD)
		return rep
	}

	if f.checker == nil {
		rep.Passed = true
		rep.Warning = "contract check disabled"
		return rep
	}

	sec, ok, err := f.checker.TokenSecurity(ctx, c.Address)
	switch {
	case err != nil:
		f.log.Warn().Err(err).Str("address", c.Address).Msg("goplus lookup failed, passing token")
		rep.Passed = true
		rep.Warning = "contract check unavailable: " + err.Error()
		return rep
	case !ok || sec == nil:
		rep.Passed = true
		rep.Warning = "token not covered by contract check"
		return rep
	}

	rep.IsHoneypot = bool(sec.IsHoneypot)
	rep.IsMintable = bool(sec.IsMintable)
	rep.HasBlacklist = bool(sec.IsBlacklisted)
	rep.CanTakeOwnership = bool(sec.CanTakeBackOwnership)
	rep.Score = Score(rep)
	rep.Passed = !rep.IsHoneypot && !rep.IsMintable && rep.Score >= f.cfg.MinScore
	if !rep.Passed {
		rep.Reason = failureDetail(rep, f.cfg.MinScore)
	}
	return rep
}

// Score converts the risk flags into a 0-100 safety score.
func Score(rep domain.SecurityReport) int {
	risk := 0
	if rep.IsHoneypot {
		risk += HoneypotRisk
	}
	if rep.IsMintable {
		risk += MintableRisk
	}
	if rep.HasBlacklist {
		risk += BlacklistRisk
	}
	if rep.CanTakeOwnership {
		risk += TakeOwnershipRisk
	}
	if risk > 100 {
		return 0
	}
	return 100 - risk
}

func failureDetail(rep domain.SecurityReport, minScore int) string {
	var flags []string
	if rep.IsHoneypot {
		flags = append(flags, "honeypot")
	}
	if rep.IsMintable {
		flags = append(flags, "mintable")
	}
	if rep.HasBlacklist {
		flags = append(flags, "blacklist")
	}
	if rep.CanTakeOwnership {
		flags = append(flags, "take-back ownership")
	}
	return fmt.Sprintf("security score %d (min %d): %s", rep.Score, minScore, strings.Join(flags, ", "))
}

// Run checks candidates on a bounded pool. Reports are in input order.
func (f *Filter) Run(ctx context.Context, candidates []domain.Candidate) ([]domain.SecurityReport, error) {
	reports := make([]domain.SecurityReport, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = f.Check(gctx, candidates[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("security run: %w", err)
	}

	passed := 0
	for _, r := range reports {
		if r.Passed {
			passed++
		}
	}
	f.log.Info().Int("checked", len(reports)).Int("passed", passed).Msg("security filter complete")
	return reports, nil
}

// Passed returns the candidates whose report passed.
func Passed(candidates []domain.Candidate, reports []domain.SecurityReport) []domain.Candidate {
	var out []domain.Candidate
	for i, r := range reports {
		if r.Passed && i < len(candidates) {
			out = append(out, candidates[i])
		}
	}
	return out
}
