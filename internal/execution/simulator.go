// Package execution models fills for simulated trades: slippage, fees,
// partial-exit sizing and random exit failures.
package execution

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"solana-revival-lab/internal/domain"
)

// Config errors
var (
	ErrNegativeSlippage  = errors.New("slippage pct must be >= 0")
	ErrNegativeFee       = errors.New("fee pct must be >= 0")
	ErrInvalidFailChance = errors.New("failed exit chance must be within [0,1]")
	ErrInvalidSellPct    = errors.New("take profit sell pcts must be within (0,100] and sum to <= 100")
)

// Config holds execution parameters. Percentages are expressed as 2.0 for 2%.
type Config struct {
	EntrySlippagePct      float64 `yaml:"entry_slippage_pct"`
	ProfitExitSlippagePct float64 `yaml:"profit_exit_slippage_pct"`
	StopLossSlippagePct   float64 `yaml:"stop_loss_slippage_pct"`
	FeePct                float64 `yaml:"fee_pct"`
	FailedExitChance      float64 `yaml:"failed_exit_chance"`
	TakeProfit1SellPct    float64 `yaml:"take_profit_1_sell_pct"`
	TakeProfit2SellPct    float64 `yaml:"take_profit_2_sell_pct"`
}

// DefaultConfig returns reference execution parameters (Jupiter fee, 5% frozen-token chance).
func DefaultConfig() Config {
	return Config{
		EntrySlippagePct:      2.0,
		ProfitExitSlippagePct: 2.0,
		StopLossSlippagePct:   10.0,
		FeePct:                0.06,
		FailedExitChance:      0.05,
		TakeProfit1SellPct:    40,
		TakeProfit2SellPct:    30,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.EntrySlippagePct < 0 || c.ProfitExitSlippagePct < 0 || c.StopLossSlippagePct < 0 {
		return ErrNegativeSlippage
	}
	if c.FeePct < 0 {
		return ErrNegativeFee
	}
	if c.FailedExitChance < 0 || c.FailedExitChance > 1 {
		return ErrInvalidFailChance
	}
	if c.TakeProfit1SellPct <= 0 || c.TakeProfit2SellPct <= 0 ||
		c.TakeProfit1SellPct+c.TakeProfit2SellPct > 100 {
		return ErrInvalidSellPct
	}
	return nil
}

// RandSource yields uniform samples in [0,1).
type RandSource interface {
	Float64() float64
}

// EntryFill is the result of a simulated buy.
type EntryFill struct {
	MarketPrice    float64
	ExecutionPrice float64
	PositionSize   float64 // gross notional
	FeeUSD         float64
	NetNotional    float64 // PositionSize - FeeUSD
}

// ExitRequest describes a simulated sell of part or all of a position.
type ExitRequest struct {
	ExitType     domain.ExitType
	CurrentPrice float64
	EntryPrice   float64
	QuantityUSD  float64 // net notional at entry
	RemainingPct float64
}

// ExitFill is the result of a simulated sell.
type ExitFill struct {
	// ExitType may differ from the request when a stop-loss fails.
	ExitType       domain.ExitType
	ExecutionPrice float64
	SellPct        float64
	SellValueUSD   float64
	GrossPnLUSD    float64
	PnLPct         float64
	FeeUSD         float64
	NetPnLUSD      float64
}

// CashCredit returns the amount returned to the cash balance.
func (f ExitFill) CashCredit() float64 {
	return f.SellValueUSD + f.NetPnLUSD
}

// Simulator applies execution rules. Safe for concurrent use.
type Simulator struct {
	cfg Config

	mu  sync.Mutex
	rnd RandSource
}

// NewSimulator creates a Simulator. A nil rnd seeds a PCG source from the clock.
func NewSimulator(cfg Config, rnd RandSource) *Simulator {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Simulator{cfg: cfg, rnd: rnd}
}

// Config returns the simulator configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Entry simulates a buy of positionSize USD at marketPrice.
// Slippage moves the price up; the fee is taken out of the notional.
func (s *Simulator) Entry(marketPrice, positionSize float64) EntryFill {
	fee := positionSize * s.cfg.FeePct / 100
	return EntryFill{
		MarketPrice:    marketPrice,
		ExecutionPrice: marketPrice * (1 + s.cfg.EntrySlippagePct/100),
		PositionSize:   positionSize,
		FeeUSD:         fee,
		NetNotional:    positionSize - fee,
	}
}

// Exit simulates a sell. Stop-loss exits draw once from the random source
// and become failed exits with the configured probability.
func (s *Simulator) Exit(req ExitRequest) ExitFill {
	fill := ExitFill{ExitType: req.ExitType}

	if req.ExitType == domain.ExitStopLoss && s.draw() < s.cfg.FailedExitChance {
		fill.ExitType = domain.ExitFailed
	}

	fill.SellPct = s.SellPct(fill.ExitType, req.RemainingPct)
	fill.SellValueUSD = req.QuantityUSD * fill.SellPct / 100

	if fill.ExitType == domain.ExitFailed {
		// Token frozen: nothing comes back, no fee is charged.
		fill.ExecutionPrice = 0
		fill.GrossPnLUSD = -fill.SellValueUSD
		fill.PnLPct = -100
		fill.NetPnLUSD = fill.GrossPnLUSD
		return fill
	}

	fill.ExecutionPrice = req.CurrentPrice * (1 - s.exitSlippagePct(fill.ExitType)/100)
	if req.EntryPrice > 0 {
		fill.PnLPct = (fill.ExecutionPrice - req.EntryPrice) / req.EntryPrice * 100
	}
	fill.GrossPnLUSD = fill.SellValueUSD * fill.PnLPct / 100

	if fill.GrossPnLUSD > 0 {
		fill.FeeUSD = (fill.SellValueUSD + fill.GrossPnLUSD) * s.cfg.FeePct / 100
	}
	fill.NetPnLUSD = fill.GrossPnLUSD - fill.FeeUSD
	return fill
}

// SellPct returns the share of original notional sold for an exit type,
// never more than what remains.
func (s *Simulator) SellPct(exitType domain.ExitType, remainingPct float64) float64 {
	var pct float64
	switch exitType {
	case domain.ExitTakeProfit1:
		pct = s.cfg.TakeProfit1SellPct
	case domain.ExitTakeProfit2:
		pct = s.cfg.TakeProfit2SellPct
	default:
		return remainingPct
	}
	if pct > remainingPct {
		return remainingPct
	}
	return pct
}

func (s *Simulator) exitSlippagePct(exitType domain.ExitType) float64 {
	if exitType == domain.ExitStopLoss {
		return s.cfg.StopLossSlippagePct
	}
	return s.cfg.ProfitExitSlippagePct
}

func (s *Simulator) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
