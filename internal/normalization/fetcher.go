package normalization

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solana-revival-lab/internal/cache"
	"solana-revival-lab/internal/providers/birdeye"
	"solana-revival-lab/internal/providers/dexscreener"
)

// TokenAgeTTL is how long a resolved creation time stays cached.
const TokenAgeTTL = 24 * time.Hour

// DefaultAgeHours sizes the OHLCV window when the age is unknown.
const DefaultAgeHours = 72.0

// MaxHistoryDays caps the OHLCV window.
const MaxHistoryDays = 30

// MarketData is the BirdEye surface the fetcher needs.
type MarketData interface {
	TokenOverview(ctx context.Context, address string) (*birdeye.Overview, error)
	OHLCV(ctx context.Context, address, timeframe string, from, to int64) ([]birdeye.Candle, error)
	TopTraders(ctx context.Context, address string, limit int) ([]birdeye.Trader, error)
	TopHolders(ctx context.Context, address string, limit int) ([]birdeye.Holder, error)
}

// PairSource lists DEX pairs for a token.
type PairSource interface {
	TokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
}

// CreationTimeSource resolves the unix time (seconds) of a token's first on-chain activity.
type CreationTimeSource interface {
	CreationTime(ctx context.Context, address string) (int64, bool, error)
}

// FetcherOptions configures a Fetcher. Nil sources are skipped.
type FetcherOptions struct {
	Market MarketData
	Pairs  PairSource
	Chain  CreationTimeSource
	Cache  cache.MetricsCache
	Now    func() time.Time
	Logger zerolog.Logger
}

// Fetcher gathers provider payloads for a token. Provider errors become absent payloads.
type Fetcher struct {
	market MarketData
	pairs  PairSource
	chain  CreationTimeSource
	cache  cache.MetricsCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		market: opts.Market,
		pairs:  opts.Pairs,
		chain:  opts.Chain,
		cache:  opts.Cache,
		now:    now,
		log:    opts.Logger.With().Str("component", "fetcher").Logger(),
	}
}

// Load fetches payloads and normalizes them.
func (f *Fetcher) Load(ctx context.Context, address string) Result {
	if err := ValidateAddress(address); err != nil {
		return Normalize(address, Payloads{})
	}
	return Normalize(address, f.Fetch(ctx, address))
}

// Fetch collects every payload it can for address.
func (f *Fetcher) Fetch(ctx context.Context, address string) Payloads {
	var p Payloads

	if f.market != nil {
		ov, err := f.market.TokenOverview(ctx, address)
		if err != nil {
			f.warn(err, address, "token overview")
		} else {
			p.Overview = ov
		}
	}

	if f.pairs != nil {
		pairs, err := f.pairs.TokenPairs(ctx, address)
		if err != nil {
			f.warn(err, address, "token pairs")
		} else {
			p.Pairs = pairs
		}
	}

	// Normalize skips such a token as DATA_UNAVAILABLE, so nothing else is fetched.
	if p.Overview == nil && len(p.Pairs) == 0 {
		return p
	}

	now := f.now()
	p.AgeHours = f.resolveAge(ctx, address, p, now)

	if f.market == nil {
		return p
	}

	age := DefaultAgeHours
	if p.AgeHours != nil {
		age = *p.AgeHours
	}
	timeframe, days := HistoryWindow(age)
	to := now.Unix()
	from := to - int64(days)*86400

	if candles, err := f.market.OHLCV(ctx, address, timeframe, from, to); err != nil {
		f.warn(err, address, "ohlcv")
	} else {
		p.OHLCV = candles
	}

	if traders, err := f.market.TopTraders(ctx, address, TopTradersLimit); err != nil {
		f.warn(err, address, "top traders")
	} else {
		p.Traders = traders
	}

	if holders, err := f.market.TopHolders(ctx, address, TopHoldersCount); err != nil {
		f.warn(err, address, "top holders")
	} else {
		p.Holders = holders
	}

	return p
}

// resolveAge returns the token age in hours, or nil when no source knows it.
// The cache holds the creation time so the age keeps advancing between runs.
func (f *Fetcher) resolveAge(ctx context.Context, address string, p Payloads, now time.Time) *float64 {
	key := cache.TokenAgeKey(address)

	if f.cache != nil {
		created, ok, err := cache.GetFloat(ctx, f.cache, key)
		if err != nil {
			f.warn(err, address, "age cache read")
		} else if ok {
			return ageSince(int64(created), now)
		}
	}

	created, ok := f.creationTime(ctx, address, p)
	if !ok {
		return nil
	}

	if f.cache != nil {
		if err := cache.PutFloat(ctx, f.cache, key, float64(created), TokenAgeTTL); err != nil {
			f.warn(err, address, "age cache write")
		}
	}
	return ageSince(created, now)
}

// creationTime tries the overview, then the oldest pair, then the chain.
func (f *Fetcher) creationTime(ctx context.Context, address string, p Payloads) (int64, bool) {
	if p.Overview != nil && p.Overview.CreationTime != nil && *p.Overview.CreationTime > 0 {
		return *p.Overview.CreationTime, true
	}

	var oldest int64
	for _, pair := range p.Pairs {
		if pair.PairCreatedAt > 0 && (oldest == 0 || pair.PairCreatedAt < oldest) {
			oldest = pair.PairCreatedAt
		}
	}
	if oldest > 0 {
		return oldest / 1000, true
	}

	if f.chain == nil {
		return 0, false
	}
	created, ok, err := f.chain.CreationTime(ctx, address)
	if err != nil {
		f.warn(err, address, "chain creation time")
		return 0, false
	}
	return created, ok
}

func (f *Fetcher) warn(err error, address, what string) {
	f.log.Warn().Err(err).Str("address", address).Msgf("%s unavailable", what)
}

func ageSince(createdUnix int64, now time.Time) *float64 {
	age := now.Sub(time.Unix(createdUnix, 0)).Hours()
	if age < 0 {
		age = 0
	}
	return &age
}

// HistoryWindow picks the candle timeframe and lookback in days for a token age.
func HistoryWindow(ageHours float64) (timeframe string, days int) {
	switch {
	case ageHours <= 1000:
		timeframe = "1H"
	case ageHours <= 4000:
		timeframe = "4H"
	default:
		timeframe = "1D"
	}
	days = int(ageHours/24) + 1
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	if days < 1 {
		days = 1
	}
	return timeframe, days
}
