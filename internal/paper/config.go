package paper

import (
	"errors"
	"fmt"

	"solana-revival-lab/internal/execution"
	"solana-revival-lab/internal/strategy"
)

// Config errors
var (
	ErrInvalidBalance      = errors.New("initial balance must be positive")
	ErrInvalidPositionSize = errors.New("position size must be positive")
	ErrInvalidMaxPositions = errors.New("max positions must be >= 0")
	ErrSellPctMismatch     = errors.New("exit and execution TP1 sell pct differ")
)

// Config holds the paper trading session parameters.
type Config struct {
	InitialBalanceUSD float64 `yaml:"initial_balance_usd"`
	PositionSizeUSD   float64 `yaml:"position_size_usd"`
	// MaxPositions caps concurrently open positions. Zero means unlimited.
	MaxPositions    int     `yaml:"max_positions"`
	MinRevivalScore float64 `yaml:"min_revival_score"`
	EventBuffer     int     `yaml:"event_buffer"`

	Exit      strategy.Config  `yaml:"exit"`
	Execution execution.Config `yaml:"execution"`
}

// DefaultConfig returns the reference session: $10k balance, $1k positions, 10 slots.
func DefaultConfig() Config {
	exec := execution.DefaultConfig()
	exit := strategy.DefaultConfig()
	exit.TakeProfit1SellPct = exec.TakeProfit1SellPct
	return Config{
		InitialBalanceUSD: 10_000,
		PositionSizeUSD:   1_000,
		MaxPositions:      10,
		MinRevivalScore:   0.4,
		EventBuffer:       64,
		Exit:              exit,
		Execution:         exec,
	}
}

// Validate checks the session and nested parameters.
func (c Config) Validate() error {
	if c.InitialBalanceUSD <= 0 {
		return ErrInvalidBalance
	}
	if c.PositionSizeUSD <= 0 {
		return ErrInvalidPositionSize
	}
	if c.MaxPositions < 0 {
		return ErrInvalidMaxPositions
	}
	if err := c.Exit.Validate(); err != nil {
		return fmt.Errorf("exit config: %w", err)
	}
	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("execution config: %w", err)
	}
	if c.Exit.TakeProfit1SellPct != c.Execution.TakeProfit1SellPct {
		return ErrSellPctMismatch
	}
	return nil
}
