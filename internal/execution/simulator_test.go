package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/domain"
)

// fixedRand always returns the same sample.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// countingRand records how often it was sampled.
type countingRand struct {
	value float64
	calls int
}

func (c *countingRand) Float64() float64 {
	c.calls++
	return c.value
}

func TestEntry_SlippageAndFee(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), fixedRand(0.99))

	fill := sim.Entry(1.0, 1000)

	assert.InDelta(t, 1.02, fill.ExecutionPrice, 1e-12)
	assert.InDelta(t, 0.6, fill.FeeUSD, 1e-12)
	assert.InDelta(t, 999.4, fill.NetNotional, 1e-9)
	assert.Equal(t, 1000.0, fill.PositionSize)
}

func TestExit_TakeProfit1SellsConfiguredShare(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), fixedRand(0.99))

	fill := sim.Exit(ExitRequest{
		ExitType:     domain.ExitTakeProfit1,
		CurrentPrice: 1.40,
		EntryPrice:   1.00,
		QuantityUSD:  1000,
		RemainingPct: 100,
	})

	// exec = 1.40 * 0.98 = 1.372 -> +37.2%
	assert.Equal(t, domain.ExitTakeProfit1, fill.ExitType)
	assert.InDelta(t, 40, fill.SellPct, 1e-12)
	assert.InDelta(t, 400, fill.SellValueUSD, 1e-9)
	assert.InDelta(t, 1.372, fill.ExecutionPrice, 1e-12)
	assert.InDelta(t, 37.2, fill.PnLPct, 1e-9)
	assert.InDelta(t, 148.8, fill.GrossPnLUSD, 1e-9)
	// fee on (400 + 148.8) at 0.06%
	assert.InDelta(t, 0.329280, fill.FeeUSD, 1e-9)
	assert.InDelta(t, 148.8-0.32928, fill.NetPnLUSD, 1e-9)
	assert.InDelta(t, 400+148.8-0.32928, fill.CashCredit(), 1e-9)
}

func TestExit_TakeProfit2CappedByRemaining(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), nil)

	assert.Equal(t, 30.0, sim.SellPct(domain.ExitTakeProfit2, 60))
	assert.Equal(t, 20.0, sim.SellPct(domain.ExitTakeProfit2, 20))
	assert.Equal(t, 60.0, sim.SellPct(domain.ExitTimeBased, 60))
	assert.Equal(t, 30.0, sim.SellPct(domain.ExitManual, 30))
}

func TestExit_LossChargesNoFee(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), fixedRand(0.99))

	fill := sim.Exit(ExitRequest{
		ExitType:     domain.ExitStopLoss,
		CurrentPrice: 0.80,
		EntryPrice:   1.00,
		QuantityUSD:  1000,
		RemainingPct: 100,
	})

	// Panic slippage: 0.80 * 0.90 = 0.72 -> -28%
	assert.Equal(t, domain.ExitStopLoss, fill.ExitType)
	assert.InDelta(t, 0.72, fill.ExecutionPrice, 1e-12)
	assert.InDelta(t, -28, fill.PnLPct, 1e-9)
	assert.InDelta(t, -280, fill.NetPnLUSD, 1e-9)
	assert.Equal(t, 0.0, fill.FeeUSD)
}

func TestExit_ForcedFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailedExitChance = 1.0
	sim := NewSimulator(cfg, nil)

	for i := 0; i < 50; i++ {
		fill := sim.Exit(ExitRequest{
			ExitType:     domain.ExitStopLoss,
			CurrentPrice: 0.5,
			EntryPrice:   1.0,
			QuantityUSD:  1000,
			RemainingPct: 60,
		})

		require.Equal(t, domain.ExitFailed, fill.ExitType)
		assert.Equal(t, -100.0, fill.PnLPct)
		assert.Equal(t, 0.0, fill.FeeUSD)
		assert.Equal(t, 0.0, fill.ExecutionPrice)
		assert.InDelta(t, 600, fill.SellValueUSD, 1e-9)
		assert.InDelta(t, -600, fill.NetPnLUSD, 1e-9)
		assert.InDelta(t, 0, fill.CashCredit(), 1e-9)
	}
}

func TestExit_OnlyStopLossDrawsRandom(t *testing.T) {
	rnd := &countingRand{value: 0}
	sim := NewSimulator(DefaultConfig(), rnd)

	for _, et := range []domain.ExitType{domain.ExitTakeProfit1, domain.ExitTakeProfit2, domain.ExitTimeBased, domain.ExitManual} {
		fill := sim.Exit(ExitRequest{ExitType: et, CurrentPrice: 1, EntryPrice: 1, QuantityUSD: 100, RemainingPct: 100})
		assert.Equal(t, et, fill.ExitType)
	}
	assert.Equal(t, 0, rnd.calls)

	fill := sim.Exit(ExitRequest{ExitType: domain.ExitStopLoss, CurrentPrice: 1, EntryPrice: 1, QuantityUSD: 100, RemainingPct: 100})
	assert.Equal(t, 1, rnd.calls)
	assert.Equal(t, domain.ExitFailed, fill.ExitType)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.FailedExitChance = 1.5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidFailChance)

	cfg = DefaultConfig()
	cfg.TakeProfit1SellPct = 80
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSellPct)

	cfg = DefaultConfig()
	cfg.StopLossSlippagePct = -1
	assert.ErrorIs(t, cfg.Validate(), ErrNegativeSlippage)
}
