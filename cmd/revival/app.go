package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"solana-revival-lab/internal/api"
	"solana-revival-lab/internal/cache"
	"solana-revival-lab/internal/config"
	"solana-revival-lab/internal/discovery"
	"solana-revival-lab/internal/execution"
	"solana-revival-lab/internal/monitor"
	"solana-revival-lab/internal/normalization"
	"solana-revival-lab/internal/observability"
	"solana-revival-lab/internal/orchestrator"
	"solana-revival-lab/internal/paper"
	"solana-revival-lab/internal/providers"
	"solana-revival-lab/internal/providers/birdeye"
	"solana-revival-lab/internal/providers/dexscreener"
	"solana-revival-lab/internal/providers/goplus"
	"solana-revival-lab/internal/reporting"
	"solana-revival-lab/internal/scoring"
	"solana-revival-lab/internal/security"
	"solana-revival-lab/internal/solana"
	"solana-revival-lab/internal/storage"
	chstore "solana-revival-lab/internal/storage/clickhouse"
	"solana-revival-lab/internal/storage/memory"
	pgstore "solana-revival-lab/internal/storage/postgres"
)

// stores holds every store the application uses.
type stores struct {
	positions storage.PositionStore
	trades    storage.TradeStore
	account   storage.AccountStore
	snapshots storage.SnapshotStore
	decisions storage.DecisionStore
}

// app is the fully wired application.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *observability.Metrics

	stores  *stores
	cache   cache.MetricsCache
	birdeye *birdeye.Client
	stream  *birdeye.PriceStream

	manager      *paper.Manager
	orchestrator *orchestrator.Orchestrator

	cleanup []func()
}

// newApp connects stores and providers and restores the paper session.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     logger,
		metrics: observability.NewMetrics(observability.DefaultNamespace, prometheus.NewRegistry()),
	}

	st, closeStores, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.stores = st
	a.cleanup = append(a.cleanup, closeStores)

	mc, closeCache, err := createCache(ctx, cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = mc
	a.cleanup = append(a.cleanup, closeCache)

	p := cfg.Providers
	a.birdeye = birdeye.NewClient(p.BirdeyeURL, p.BirdeyeAPIKey, a.transport("birdeye"))
	dex := dexscreener.NewClient(p.DexscreenerURL, a.transport("dexscreener"))
	gp := goplus.NewClient(p.GoplusURL, p.GoplusAPIKey, a.transport("goplus"))

	var prices paper.PriceSource = a.birdeye
	if p.StreamPrices {
		streamCfg := birdeye.DefaultStreamConfig()
		stream, err := birdeye.NewPriceStream(ctx, birdeye.StreamURL(p.BirdeyeStreamURL, p.BirdeyeAPIKey), a.birdeye, &streamCfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("price stream unavailable, using REST prices")
		} else {
			a.stream = stream
			prices = stream
			a.cleanup = append(a.cleanup, func() { _ = stream.Close() })
		}
	}

	fetcherOpts := normalization.FetcherOptions{
		Market: a.birdeye,
		Pairs:  dex,
		Cache:  a.cache,
		Logger: logger,
	}
	if p.SolanaRPCURL != "" {
		fetcherOpts.Chain = solana.NewHTTPClient(p.SolanaRPCURL, solana.WithTransport(a.transport("helius")))
	}

	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	manager, err := paper.NewManager(paper.Options{
		Config:    cfg.Paper,
		Prices:    prices,
		Simulator: execution.NewSimulator(cfg.Paper.Execution, nil),
		Positions: st.positions,
		Trades:    st.trades,
		Account:   st.account,
		Snapshots: st.snapshots,
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := manager.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore paper session: %w", err)
	}
	a.manager = manager
	a.metrics.UpdatePortfolio(manager.Summary())

	a.orchestrator = orchestrator.New(orchestrator.Options{
		Source:    discovery.NewSource(a.birdeye, cfg.Discovery, logger),
		Prefilter: discovery.NewPrefilter(cfg.Prefilter),
		Security:  security.NewFilter(gp, cfg.Security, logger),
		Loader:    normalization.NewFetcher(fetcherOpts),
		Scorer:    engine,
		Trader:    manager,
		Decisions: st.decisions,
		Observer:  a.metrics,
		MinScore:  cfg.Paper.MinRevivalScore,
		Workers:   cfg.Scan.Workers,
		Logger:    logger,
	})
	return a, nil
}

// transport builds a provider transport reporting to the metrics.
func (a *app) transport(name string) *providers.Transport {
	p := a.cfg.Providers
	return providers.NewTransport(name,
		providers.WithTimeout(p.Timeout),
		providers.WithMaxRetries(p.MaxRetries),
		providers.WithRateLimit(p.RPS, p.Burst),
		providers.WithBreaker(p.BreakerFailures, p.BreakerTimeout),
		providers.WithObserver(a.metrics.ProviderRequest),
		providers.WithLogger(a.log),
	)
}

// scan runs one pipeline pass and records it.
func (a *app) scan(ctx context.Context) (*orchestrator.RunResult, error) {
	start := time.Now()
	res, err := a.orchestrator.Run(ctx)
	a.metrics.RecordScan(time.Since(start), err)
	a.metrics.UpdatePortfolio(a.manager.Summary())
	return res, err
}

// monitor builds the exit loop over the paper manager.
func (a *app) monitor() *monitor.Monitor {
	opts := monitor.Options{
		Book:          a.manager,
		Prices:        a.birdeye,
		Interval:      a.cfg.Monitor.Interval,
		LookupTimeout: a.cfg.Monitor.LookupTimeout,
		Workers:       a.cfg.Monitor.Workers,
		OnCycle:       a.metrics.ObserveCycle,
		Logger:        a.log,
	}
	if a.stream != nil {
		opts.Prices = a.stream
		opts.Stream = a.stream
	}
	return monitor.New(opts)
}

// server builds the HTTP API.
func (a *app) server() *api.Server {
	return api.NewServer(api.Options{
		Config:    a.cfg.HTTP,
		Book:      a.manager,
		Trades:    a.stores.trades,
		Snapshots: a.stores.snapshots,
		Decisions: a.stores.decisions,
		Metrics:   a.metrics.Handler(),
		OnTrade:   a.metrics.TradeRecorded,
		Logger:    a.log,
	})
}

// reportGenerator builds the report generator over the application stores.
func (a *app) reportGenerator() *reporting.Generator {
	return reporting.NewGenerator(
		a.stores.positions,
		a.stores.trades,
		a.stores.snapshots,
		a.stores.decisions,
		a.cfg.Paper.InitialBalanceUSD,
	)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// createStores uses postgres for positions, trades and the account and
// clickhouse for snapshots and decisions. An empty DSN selects memory stores.
func createStores(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*stores, func(), error) {
	st := &stores{
		positions: memory.NewPositionStore(),
		trades:    memory.NewTradeStore(),
		account:   memory.NewAccountStore(),
		snapshots: memory.NewSnapshotStore(),
		decisions: memory.NewDecisionStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		st.positions = pgstore.NewPositionStore(pool)
		st.trades = pgstore.NewTradeStore(pool)
		st.account = pgstore.NewAccountStore(pool)
	} else {
		logger.Warn().Msg("no postgres dsn, positions and trades are kept in memory")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		st.snapshots = chstore.NewSnapshotStore(conn)
		st.decisions = chstore.NewDecisionStore(conn)
	} else {
		logger.Warn().Msg("no clickhouse dsn, snapshots and decisions are kept in memory")
	}

	return st, cleanup, nil
}

// createCache connects redis when configured, otherwise uses an in-memory cache.
func createCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (cache.MetricsCache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(time.Now), func() {}, nil
	}
	rc, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
	return rc, func() {
		if err := rc.Close(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("close redis")
		}
	}, nil
}
