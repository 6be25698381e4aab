package strategy

import (
	"errors"
)

// Factory errors
var (
	ErrInvalidStopLossPct   = errors.New("stop loss pct must be within (-100, 0)")
	ErrInvalidTakeProfitPct = errors.New("take profit pcts must be positive and TP2 above TP1")
	ErrInvalidTP1SellPct    = errors.New("TP1 sell pct must be within (0, 100)")
	ErrInvalidMaxHoldDays   = errors.New("max hold days must be positive")
)

// Config holds exit trigger parameters.
type Config struct {
	StopLossPct        float64 `yaml:"stop_loss_pct"`
	TakeProfit1Pct     float64 `yaml:"take_profit_1_pct"`
	TakeProfit2Pct     float64 `yaml:"take_profit_2_pct"`
	TakeProfit1SellPct float64 `yaml:"take_profit_1_sell_pct"`
	MaxHoldDays        float64 `yaml:"max_hold_days"`
}

// DefaultConfig returns the reference exit parameters.
func DefaultConfig() Config {
	return Config{
		StopLossPct:        -20,
		TakeProfit1Pct:     35,
		TakeProfit2Pct:     75,
		TakeProfit1SellPct: 40,
		MaxHoldDays:        5,
	}
}

// Validate checks required parameters.
func (c Config) Validate() error {
	if c.StopLossPct <= -100 || c.StopLossPct >= 0 {
		return ErrInvalidStopLossPct
	}
	if c.TakeProfit1Pct <= 0 || c.TakeProfit2Pct <= c.TakeProfit1Pct {
		return ErrInvalidTakeProfitPct
	}
	if c.TakeProfit1SellPct <= 0 || c.TakeProfit1SellPct >= 100 {
		return ErrInvalidTP1SellPct
	}
	if c.MaxHoldDays <= 0 {
		return ErrInvalidMaxHoldDays
	}
	return nil
}

// FromConfig builds the exit plan: stop loss, then take profit, then time exit.
// Stop loss always pre-empts profit taking.
func FromConfig(cfg Config) (*ExitPlan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewExitPlan(
		NewStopLossRule(),
		NewTakeProfitRule(cfg.TakeProfit1SellPct),
		NewTimeExitRule(cfg.MaxHoldDays),
	), nil
}
