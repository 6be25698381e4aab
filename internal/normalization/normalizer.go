// Package normalization maps provider payloads onto domain.TokenMetrics.
//
// Normalize is a pure transform: missing payloads and fields fall back to
// zero values or absent pointers. The only outcome that stops a token is a
// SkipReason (no usable data, or an address that is not a public key).
package normalization

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/providers/birdeye"
	"solana-revival-lab/internal/providers/dexscreener"
)

// ErrDataUnavailable is returned when no provider had data for a token.
var ErrDataUnavailable = errors.New("no provider data for token")

const (
	// TopTradersLimit bounds the ranked trader listing.
	TopTradersLimit = 20
	// TopHoldersCount is the number of holders used for concentration.
	TopHoldersCount = 10
)

// Payloads holds raw provider responses for one address. Nil or empty fields are absent.
type Payloads struct {
	Overview *birdeye.Overview
	Pairs    []dexscreener.Pair
	OHLCV    []birdeye.Candle
	Traders  []birdeye.Trader
	Holders  []birdeye.Holder
	AgeHours *float64
}

// SkipReason explains why a token produced no metrics.
type SkipReason struct {
	Reason domain.FailureReason
	Detail string
}

// Error implements error so a skip can travel through error paths.
func (s *SkipReason) Error() string {
	if s.Detail == "" {
		return string(s.Reason)
	}
	return fmt.Sprintf("%s: %s", s.Reason, s.Detail)
}

// Unwrap maps DATA_UNAVAILABLE skips onto ErrDataUnavailable.
func (s *SkipReason) Unwrap() error {
	if s.Reason == domain.FailureDataUnavailable {
		return ErrDataUnavailable
	}
	return nil
}

// Result is either Metrics or Skip, never both.
type Result struct {
	Metrics *domain.TokenMetrics
	Skip    *SkipReason
}

// OK reports whether metrics were produced.
func (r Result) OK() bool {
	return r.Metrics != nil && r.Skip == nil
}

func skip(reason domain.FailureReason, detail string) Result {
	return Result{Skip: &SkipReason{Reason: reason, Detail: detail}}
}

// Normalize builds a TokenMetrics snapshot from the payloads. The overview is
// preferred; the most liquid DexScreener pair fills whatever it lacks.
func Normalize(address string, p Payloads) Result {
	if err := ValidateAddress(address); err != nil {
		return skip(domain.FailureInvalidAddress, err.Error())
	}

	pair := bestPair(p.Pairs)
	if p.Overview == nil && pair == nil {
		return skip(domain.FailureDataUnavailable, "no overview and no trading pairs")
	}

	m := &domain.TokenMetrics{Address: address}
	if p.AgeHours != nil {
		age := *p.AgeHours
		m.AgeHours = &age
	}

	if ov := p.Overview; ov != nil {
		m.Symbol = ov.Symbol
		m.Name = ov.Name
		m.LiquidityUSD = nonNegative(ov.Liquidity)
		m.MarketCapUSD = nonNegative(ov.MarketCap)
		m.Volume24hUSD = nonNegative(ov.Volume24hUSD)
		m.Volume1hUSD = nonNegative(ov.Volume1hUSD)
		m.PriceUSD = nonNegative(ov.Price)
		m.HolderCount = ov.Holder
		m.Trades = domain.TradeCounts{
			Buy1h:            ov.Buy1h,
			Sell1h:           ov.Sell1h,
			Buy24h:           ov.Buy24h,
			Sell24h:          ov.Sell24h,
			UniqueWallets24h: ov.UniqueWallet24h,
			WatchCount:       ov.Watch,
			View24h:          ov.View24h,
		}
		m.Sources = append(m.Sources, domain.SourceBirdEye)
	}

	if pair != nil {
		fillFromPair(m, pair)
		m.Sources = append(m.Sources, domain.SourceDexScreener)
	}

	// 24h counts: DexScreener when it has them, otherwise extrapolate the hourly counts.
	if m.Trades.Buy24h == 0 && m.Trades.Sell24h == 0 {
		m.Trades.Buy24h = m.Trades.Buy1h * 24
		m.Trades.Sell24h = m.Trades.Sell1h * 24
	}

	m.PriceSeries = PriceSeries(p.OHLCV)
	m.TopTraders = RankTraders(p.Traders, TopTradersLimit)
	m.WhaleWalletCount = CountWhales(m.TopTraders, domain.WhaleThresholdUSD)

	if p.Overview != nil {
		m.HolderTop10Pct = HolderConcentration(p.Holders, p.Overview.Supply)
	}

	return Result{Metrics: m}
}

// fillFromPair copies pair values into fields the overview left empty.
func fillFromPair(m *domain.TokenMetrics, pair *dexscreener.Pair) {
	if m.Symbol == "" {
		m.Symbol = pair.BaseToken.Symbol
	}
	if m.Name == "" {
		m.Name = pair.BaseToken.Name
	}
	if m.LiquidityUSD == 0 {
		m.LiquidityUSD = nonNegative(pair.LiquidityUSD())
	}
	if m.MarketCapUSD == 0 {
		mc := pair.MarketCap
		if mc == 0 {
			mc = pair.FDV
		}
		m.MarketCapUSD = nonNegative(mc)
	}
	if m.Volume24hUSD == 0 {
		m.Volume24hUSD = nonNegative(pair.Volume.H24)
	}
	if m.Volume1hUSD == 0 {
		m.Volume1hUSD = nonNegative(pair.Volume.H1)
	}
	if m.PriceUSD == 0 {
		if price, err := strconv.ParseFloat(pair.PriceUSD, 64); err == nil {
			m.PriceUSD = nonNegative(price)
		}
	}
	if m.Trades.Buy1h == 0 && m.Trades.Sell1h == 0 {
		m.Trades.Buy1h = pair.Txns.H1.Buys
		m.Trades.Sell1h = pair.Txns.H1.Sells
	}
	if h24 := pair.Txns.H24; h24.Buys+h24.Sells > 0 {
		m.Trades.Buy24h = h24.Buys
		m.Trades.Sell24h = h24.Sells
	}
}

// bestPair returns the most liquid pair, nil when there are none.
func bestPair(pairs []dexscreener.Pair) *dexscreener.Pair {
	var best *dexscreener.Pair
	for i := range pairs {
		if best == nil || pairs[i].LiquidityUSD() > best.LiquidityUSD() {
			best = &pairs[i]
		}
	}
	return best
}

// PriceSeries converts candles into a chronological series.
// Candles sharing a timestamp collapse to the last one seen. Unusable closes become NaN.
func PriceSeries(candles []birdeye.Candle) []domain.PricePoint {
	if len(candles) == 0 {
		return nil
	}

	sorted := make([]birdeye.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UnixTime < sorted[j].UnixTime
	})

	points := make([]domain.PricePoint, 0, len(sorted))
	for _, c := range sorted {
		pt := domain.PricePoint{
			TimestampMs: c.UnixTime * 1000,
			Close:       c.Close,
			Volume:      nonNegative(c.Volume),
		}
		if math.IsNaN(c.Close) || math.IsInf(c.Close, 0) || c.Close <= 0 {
			pt.Close = math.NaN()
		}

		if n := len(points); n > 0 && points[n-1].TimestampMs == pt.TimestampMs {
			points[n-1] = pt
			continue
		}
		points = append(points, pt)
	}
	return points
}

// RankTraders sorts traders by value descending and keeps at most limit entries.
func RankTraders(traders []birdeye.Trader, limit int) []domain.TraderHolding {
	if len(traders) == 0 {
		return nil
	}

	ranked := make([]domain.TraderHolding, 0, len(traders))
	for _, t := range traders {
		ranked = append(ranked, domain.TraderHolding{Address: t.Owner, ValueUSD: nonNegative(t.ValueUSD)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ValueUSD > ranked[j].ValueUSD
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CountWhales counts holdings strictly above threshold.
func CountWhales(holdings []domain.TraderHolding, threshold float64) int {
	n := 0
	for _, h := range holdings {
		if h.ValueUSD > threshold {
			n++
		}
	}
	return n
}

// HolderConcentration returns the share of supply held by the top ten holders,
// in percent. Nil when holders or supply are unknown.
func HolderConcentration(holders []birdeye.Holder, supply float64) *float64 {
	if len(holders) == 0 || supply <= 0 || math.IsNaN(supply) || math.IsInf(supply, 0) {
		return nil
	}

	amounts := make([]float64, 0, len(holders))
	for _, h := range holders {
		amounts = append(amounts, nonNegative(h.UIAmount))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))
	if len(amounts) > TopHoldersCount {
		amounts = amounts[:TopHoldersCount]
	}

	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	pct := sum / supply * 100
	return &pct
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
