package domain

import "math"

// TokenMetrics is the canonical per-token snapshot consumed by the scorer.
// Built once by the normalizer and never mutated afterwards.
type TokenMetrics struct {
	Address string
	Symbol  string
	Name    string

	// AgeHours is nil when the age was not resolved; treated as verified upstream.
	AgeHours *float64

	LiquidityUSD float64
	MarketCapUSD float64
	Volume24hUSD float64
	Volume1hUSD  float64
	PriceUSD     float64

	// PriceSeries is chronological. Invalid closes are NaN.
	PriceSeries []PricePoint

	// HolderTop10Pct is nil when holder data was unavailable.
	HolderTop10Pct *float64
	HolderCount    int

	Trades TradeCounts

	// TopTraders ranked by notional value, descending.
	TopTraders       []TraderHolding
	WhaleWalletCount int

	// Sources lists the providers that contributed data.
	Sources []Source
}

// PricePoint is one candle of the price history.
type PricePoint struct {
	TimestampMs int64
	Close       float64
	Volume      float64
}

// Valid reports whether the close is usable.
func (p PricePoint) Valid() bool {
	return !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0) && p.Close > 0
}

// TradeCounts holds activity counters. Missing values are zero.
type TradeCounts struct {
	Buy1h            int
	Sell1h           int
	Buy24h           int
	Sell24h          int
	UniqueWallets24h int
	WatchCount       int
	View24h          int
}

// Trade1h returns total trades in the last hour.
func (c TradeCounts) Trade1h() int {
	return c.Buy1h + c.Sell1h
}

// BuyPercentage1h returns buys as a percentage of 1h trades, 0 when no trades.
func (c TradeCounts) BuyPercentage1h() float64 {
	total := c.Trade1h()
	if total == 0 {
		return 0
	}
	return float64(c.Buy1h) / float64(total) * 100
}

// TraderHolding is one entry of a ranked trader or holder listing.
type TraderHolding struct {
	Address  string
	ValueUSD float64
}

// WhaleThresholdUSD is the notional above which a trader counts as a whale.
const WhaleThresholdUSD = 100_000.0
