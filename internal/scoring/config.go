package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidWeights   = errors.New("scoring weights must be non-negative and sum to 1.0")
	ErrInvalidThreshold = errors.New("pass threshold must be within [0,1]")
)

// weightTolerance absorbs float rounding when summing configured weights.
const weightTolerance = 1e-9

// Weights are the per-component multipliers of the composite score.
type Weights struct {
	Price      float64 `yaml:"price"`
	SmartMoney float64 `yaml:"smart_money"`
	Volume     float64 `yaml:"volume"`
	Social     float64 `yaml:"social"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Price + w.SmartMoney + w.Volume + w.Social
}

// Config holds every threshold used by the engine.
type Config struct {
	Weights       Weights `yaml:"weights"`
	PassThreshold float64 `yaml:"pass_threshold"`

	// Concentration veto
	MaxTop10HolderPct float64 `yaml:"max_top10_holder_pct"`

	// Price pattern
	MinPricePoints    int     `yaml:"min_price_points"`
	HigherLowsWindow  int     `yaml:"higher_lows_window"`
	VolumeWindow      int     `yaml:"volume_window"`
	DumpSeverityMin   float64 `yaml:"dump_severity_min"`
	DumpSeverityMax   float64 `yaml:"dump_severity_max"`
	MinRecoveryRatio  float64 `yaml:"min_recovery_ratio"`
	MinVolumeIncrease float64 `yaml:"min_volume_increase"`

	// Smart money
	WhaleThresholdUSD float64 `yaml:"whale_threshold_usd"`
	TopTradersLimit   int     `yaml:"top_traders_limit"`

	// Volume
	MinVolume24hUSD float64 `yaml:"min_volume_24h_usd"`

	// Social
	MinUniqueWallets24h int `yaml:"min_unique_wallets_24h"`
	MinWatchCount       int `yaml:"min_watch_count"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Price:      0.60,
			SmartMoney: 0.15,
			Volume:     0.15,
			Social:     0.10,
		},
		PassThreshold:       0.4,
		MaxTop10HolderPct:   30,
		MinPricePoints:      10,
		HigherLowsWindow:    12,
		VolumeWindow:        6,
		DumpSeverityMin:     0.10,
		DumpSeverityMax:     0.50,
		MinRecoveryRatio:    1.30,
		MinVolumeIncrease:   2.0,
		WhaleThresholdUSD:   100_000,
		TopTradersLimit:     20,
		MinVolume24hUSD:     50_000,
		MinUniqueWallets24h: 100,
		MinWatchCount:       50,
	}
}

// Validate checks weights and thresholds.
func (c Config) Validate() error {
	w := c.Weights
	if w.Price < 0 || w.SmartMoney < 0 || w.Volume < 0 || w.Social < 0 {
		return ErrInvalidWeights
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("%w: got %.6f", ErrInvalidWeights, w.Sum())
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.MinPricePoints < 3 {
		return fmt.Errorf("min price points must be >= 3, got %d", c.MinPricePoints)
	}
	if c.VolumeWindow <= 0 || c.HigherLowsWindow <= 0 {
		return fmt.Errorf("volume and higher-lows windows must be positive")
	}
	if c.DumpSeverityMin > c.DumpSeverityMax {
		return fmt.Errorf("dump severity min %.2f exceeds max %.2f", c.DumpSeverityMin, c.DumpSeverityMax)
	}
	return nil
}
