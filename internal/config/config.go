// Package config loads the application configuration: defaults, then an
// optional YAML file, then an optional .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"solana-revival-lab/internal/api"
	"solana-revival-lab/internal/discovery"
	"solana-revival-lab/internal/monitor"
	"solana-revival-lab/internal/paper"
	"solana-revival-lab/internal/providers"
	"solana-revival-lab/internal/providers/birdeye"
	"solana-revival-lab/internal/providers/dexscreener"
	"solana-revival-lab/internal/providers/goplus"
	"solana-revival-lab/internal/scoring"
	"solana-revival-lab/internal/security"
)

// ErrInvalidConfig wraps every validation and override failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultPath is read when no path is given; a missing default file is not an error.
const DefaultPath = "config.yaml"

// Config is the full application configuration.
type Config struct {
	Scoring   scoring.Config            `yaml:"scoring"`
	Paper     paper.Config              `yaml:"paper"`
	Discovery discovery.SourceConfig    `yaml:"discovery"`
	Prefilter discovery.PrefilterConfig `yaml:"prefilter"`
	Security  security.Config           `yaml:"security"`
	Scan      ScanConfig                `yaml:"scan"`
	Monitor   MonitorConfig             `yaml:"monitor"`
	Providers ProvidersConfig           `yaml:"providers"`
	Storage   StorageConfig             `yaml:"storage"`
	Cache     CacheConfig               `yaml:"cache"`
	HTTP      api.Config                `yaml:"http"`
	Log       LogConfig                 `yaml:"log"`
}

// ScanConfig controls the discovery pipeline schedule.
type ScanConfig struct {
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

// MonitorConfig controls the position monitor.
type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	Workers       int           `yaml:"workers"`
}

// ProvidersConfig holds endpoints, keys and transport limits of the data providers.
type ProvidersConfig struct {
	BirdeyeURL       string `yaml:"birdeye_url"`
	BirdeyeAPIKey    string `yaml:"birdeye_api_key"`
	BirdeyeStreamURL string `yaml:"birdeye_stream_url"`
	// StreamPrices enables the websocket price feed for open positions.
	StreamPrices   bool   `yaml:"stream_prices"`
	DexscreenerURL string `yaml:"dexscreener_url"`
	GoplusURL      string `yaml:"goplus_url"`
	GoplusAPIKey   string `yaml:"goplus_api_key"`
	SolanaRPCURL   string `yaml:"solana_rpc_url"`

	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RPS        float64       `yaml:"rps"`
	Burst      int           `yaml:"burst"`
	// The circuit opens after BreakerFailures consecutive failed attempts
	// and probes the provider again after BreakerTimeout.
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

// StorageConfig selects the stores. Empty DSNs use in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// CacheConfig selects the metrics cache. Empty RedisAddr uses an in-memory cache.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Prefix        string `yaml:"prefix"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Scoring:   scoring.DefaultConfig(),
		Paper:     paper.DefaultConfig(),
		Discovery: discovery.DefaultSourceConfig(),
		Prefilter: discovery.DefaultPrefilterConfig(),
		Security:  security.DefaultConfig(),
		Scan: ScanConfig{
			Interval: 15 * time.Minute,
			Workers:  3,
		},
		Monitor: MonitorConfig{
			Interval:      monitor.DefaultInterval,
			LookupTimeout: monitor.DefaultLookupTimeout,
			Workers:       monitor.DefaultWorkers,
		},
		Providers: ProvidersConfig{
			BirdeyeURL:       birdeye.DefaultBaseURL,
			BirdeyeStreamURL: birdeye.DefaultStreamURL,
			DexscreenerURL:   dexscreener.DefaultBaseURL,
			GoplusURL:        goplus.DefaultBaseURL,
			Timeout:          providers.DefaultTimeout,
			MaxRetries:       providers.DefaultMaxRetries,
			RPS:              providers.DefaultRPS,
			Burst:            providers.DefaultBurst,
			BreakerFailures:  providers.DefaultBreakerFailures,
			BreakerTimeout:   providers.DefaultBreakerTimeout,
		},
		Cache: CacheConfig{Prefix: "revival:"},
		HTTP:  api.DefaultConfig(),
		Log:   LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An empty path reads DefaultPath when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("BIRDEYE_API_KEY", &c.Providers.BirdeyeAPIKey)
	str("GOPLUS_API_KEY", &c.Providers.GoplusAPIKey)
	str("HELIUS_RPC_URL", &c.Providers.SolanaRPCURL)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("REVIVAL_HTTP_ADDR", &c.HTTP.Addr)
	str("REVIVAL_LOG_LEVEL", &c.Log.Level)

	var errs []error
	float := func(key string, dst *float64) {
		v := getenv(key)
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	integer := func(key string, dst *int) {
		v := getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	duration := func(key string, dst *time.Duration) {
		v := getenv(key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	boolean := func(key string, dst *bool) {
		v := getenv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	float("REVIVAL_INITIAL_BALANCE", &c.Paper.InitialBalanceUSD)
	float("REVIVAL_POSITION_SIZE", &c.Paper.PositionSizeUSD)
	integer("REVIVAL_MAX_POSITIONS", &c.Paper.MaxPositions)
	float("REVIVAL_MIN_SCORE", &c.Paper.MinRevivalScore)
	duration("REVIVAL_SCAN_INTERVAL", &c.Scan.Interval)
	duration("REVIVAL_MONITOR_INTERVAL", &c.Monitor.Interval)
	boolean("REVIVAL_STREAM_PRICES", &c.Providers.StreamPrices)
	boolean("BIRDEYE_USE_NATIVE_MEME_LIST", &c.Discovery.NativeMemeList)
	boolean("REVIVAL_LOG_PRETTY", &c.Log.Pretty)

	if len(errs) > 0 {
		return fmt.Errorf("%w: env: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("%w: scoring: %w", ErrInvalidConfig, err)
	}
	if err := c.Paper.Validate(); err != nil {
		return fmt.Errorf("%w: paper: %w", ErrInvalidConfig, err)
	}
	if c.Paper.MinRevivalScore < 0 || c.Paper.MinRevivalScore > 1 {
		return fmt.Errorf("%w: paper: min revival score must be within [0,1]", ErrInvalidConfig)
	}

	p := c.Prefilter
	if p.MinLiquidityUSD < 0 || p.MinVolume1hUSD < 0 || p.MaxMarketCapUSD < 0 {
		return fmt.Errorf("%w: prefilter: thresholds must be non-negative", ErrInvalidConfig)
	}
	if p.MaxAgeHours > 0 && p.MinAgeHours > p.MaxAgeHours {
		return fmt.Errorf("%w: prefilter: min age %.0fh exceeds max age %.0fh", ErrInvalidConfig, p.MinAgeHours, p.MaxAgeHours)
	}
	if c.Security.MinScore < 0 || c.Security.MinScore > 100 {
		return fmt.Errorf("%w: security: min score must be within [0,100]", ErrInvalidConfig)
	}
	if c.Discovery.PageSize <= 0 || c.Discovery.Pages <= 0 {
		return fmt.Errorf("%w: discovery: page size and pages must be positive", ErrInvalidConfig)
	}
	if c.Scan.Interval <= 0 || c.Monitor.Interval <= 0 {
		return fmt.Errorf("%w: scan and monitor intervals must be positive", ErrInvalidConfig)
	}
	if c.Providers.RPS < 0 || c.Providers.MaxRetries < 0 {
		return fmt.Errorf("%w: providers: rps and max retries must be non-negative", ErrInvalidConfig)
	}
	if c.Providers.BreakerFailures == 0 || c.Providers.BreakerTimeout <= 0 {
		return fmt.Errorf("%w: providers: breaker failures and timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
