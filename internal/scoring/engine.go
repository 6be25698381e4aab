// Package scoring computes the revival score of a token snapshot.
//
// The engine is stateless: Score reads the metrics and returns a new result,
// so a single Engine may be shared across goroutines.
package scoring

import (
	"fmt"

	"solana-revival-lab/internal/domain"
)

// Engine computes RevivalScoreResult values.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating the config.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score computes the composite score for one snapshot.
func (e *Engine) Score(m *domain.TokenMetrics) domain.RevivalScoreResult {
	res := domain.RevivalScoreResult{Address: m.Address}

	// Concentration veto short-circuits every other component.
	if m.HolderTop10Pct != nil && *m.HolderTop10Pct > e.cfg.MaxTop10HolderPct {
		res.FailureReason = domain.FailureHighConcentration
		res.Detail = fmt.Sprintf("top 10 holders own %.1f%% (max %.1f%%)", *m.HolderTop10Pct, e.cfg.MaxTop10HolderPct)
		return res
	}

	price, analysis, ok := e.scorePrice(m.PriceSeries)
	res.Price = analysis
	if !ok {
		res.PriceDataReason = domain.FailureDataFetchFailed
		res.Detail = fmt.Sprintf("insufficient price history: %d valid points, need %d",
			analysis.ValidPoints, e.cfg.MinPricePoints)
	}

	res.Components = domain.ComponentScores{
		Price:      price,
		SmartMoney: e.scoreSmartMoney(m),
		Volume:     e.scoreVolume(m),
		Social:     e.scoreSocial(m),
	}
	res.CompositeScore = e.composite(res.Components)
	res.Passed = res.CompositeScore >= e.cfg.PassThreshold

	if !res.Passed {
		res.FailureReason = e.classifyFailure(res.Components, !ok)
	}
	return res
}

// ScoreSafe is Score with panic recovery. A panic yields an EXCEPTION result with score 0.
func (e *Engine) ScoreSafe(m *domain.TokenMetrics) (res domain.RevivalScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			addr := ""
			if m != nil {
				addr = m.Address
			}
			res = domain.RevivalScoreResult{
				Address:       addr,
				FailureReason: domain.FailureException,
				Detail:        fmt.Sprintf("panic during scoring: %v", r),
			}
		}
	}()
	return e.Score(m)
}

// composite returns the weighted sum of components.
func (e *Engine) composite(c domain.ComponentScores) float64 {
	w := e.cfg.Weights
	return c.Price*w.Price +
		c.SmartMoney*w.SmartMoney +
		c.Volume*w.Volume +
		c.Social*w.Social
}

// classifyFailure picks the highest-priority reason for a sub-threshold score.
// Missing price history is reported instead of a weak pattern.
func (e *Engine) classifyFailure(c domain.ComponentScores, priceDataMissing bool) domain.FailureReason {
	switch {
	case priceDataMissing:
		return domain.FailureDataFetchFailed
	case c.Price < 0.25:
		return domain.FailureWeakPricePattern
	case c.SmartMoney < 0.2:
		return domain.FailureNoSmartMoney
	case c.Volume < 0.2:
		return domain.FailureLowVolume
	default:
		return domain.FailureLowOverallScore
	}
}
