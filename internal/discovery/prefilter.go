package discovery

import (
	"fmt"
	"strings"
	"unicode"

	"solana-revival-lab/internal/domain"
)

// PrefilterConfig holds the market thresholds. Zero maximums disable the check.
type PrefilterConfig struct {
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
	MinVolume1hUSD  float64 `yaml:"min_volume_1h_usd"`
	MinAgeHours     float64 `yaml:"min_age_hours"`
	MaxAgeHours     float64 `yaml:"max_age_hours"`
	MaxMarketCapUSD float64 `yaml:"max_market_cap_usd"`
	// ExcludeKeywords rejects a candidate when a word of its symbol or name
	// equals one of them, case-insensitively.
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// defaultExcludeKeywords name stablecoins, liquid staking, wrapped assets and DeFi
// protocol tokens.
var defaultExcludeKeywords = []string{
	"usd", "usdc", "usdt", "dai", "busd", "frax", "ust", "tusd", "pax", "gusd", "pyusd",
	"stsol", "msol", "jitosol", "scnsol", "bsol", "lstsol", "hsol", "csol", "inf",
	"steth", "reth", "cbeth", "frxeth", "sfrxeth",
	"wrapped", "wbtc", "weth", "wsol", "staked", "liquid", "lido",
	"marinade", "jito", "socean", "blazestake", "daopool",
	"raydium", "orca", "serum", "saber", "mercurial", "aldrin", "cyclos",
	"solend", "mango", "apricot", "larix", "oxygen",
	"chainlink", "link", "oracle", "bridge", "yield", "vault", "farm", "amm", "dex",
}

// DefaultPrefilterConfig returns the reference thresholds.
func DefaultPrefilterConfig() PrefilterConfig {
	return PrefilterConfig{
		MinLiquidityUSD: 20_000,
		MinVolume1hUSD:  500,
		MinAgeHours:     72,
		MaxAgeHours:     4320,
		MaxMarketCapUSD: 30_000_000,
		ExcludeKeywords: append([]string(nil), defaultExcludeKeywords...),
	}
}

// Rejection records why a candidate was dropped.
type Rejection struct {
	Candidate domain.Candidate
	Reason    string
}

// Prefilter drops candidates that cannot be revival plays.
type Prefilter struct {
	cfg      PrefilterConfig
	excluded map[string]bool
}

// NewPrefilter creates a prefilter.
func NewPrefilter(cfg PrefilterConfig) *Prefilter {
	excluded := make(map[string]bool, len(cfg.ExcludeKeywords))
	for _, k := range cfg.ExcludeKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			excluded[k] = true
		}
	}
	return &Prefilter{cfg: cfg, excluded: excluded}
}

// Apply splits candidates into kept and rejected, preserving order.
func (p *Prefilter) Apply(candidates []domain.Candidate) (kept []domain.Candidate, rejected []Rejection) {
	for _, c := range candidates {
		if reason := p.Check(c); reason != "" {
			rejected = append(rejected, Rejection{Candidate: c, Reason: reason})
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}

// Check returns an empty string when the candidate passes.
// Unknown age and unknown (zero) market cap pass.
func (p *Prefilter) Check(c domain.Candidate) string {
	if kw := p.excludedKeyword(c.Symbol, c.Name); kw != "" {
		return fmt.Sprintf("not a meme token (keyword %q)", kw)
	}
	if c.LiquidityUSD < p.cfg.MinLiquidityUSD {
		return fmt.Sprintf("liquidity $%.0f below $%.0f", c.LiquidityUSD, p.cfg.MinLiquidityUSD)
	}
	if c.Volume1hUSD < p.cfg.MinVolume1hUSD {
		return fmt.Sprintf("1h volume $%.0f below $%.0f", c.Volume1hUSD, p.cfg.MinVolume1hUSD)
	}
	if c.AgeHours != nil {
		age := *c.AgeHours
		if age < p.cfg.MinAgeHours {
			return fmt.Sprintf("age %.1fh below %.0fh", age, p.cfg.MinAgeHours)
		}
		if p.cfg.MaxAgeHours > 0 && age > p.cfg.MaxAgeHours {
			return fmt.Sprintf("age %.1fh above %.0fh", age, p.cfg.MaxAgeHours)
		}
	}
	if p.cfg.MaxMarketCapUSD > 0 && c.MarketCapUSD > p.cfg.MaxMarketCapUSD {
		return fmt.Sprintf("market cap $%.0f above $%.0f", c.MarketCapUSD, p.cfg.MaxMarketCapUSD)
	}
	return ""
}

// excludedKeyword returns the first word of symbol or name on the exclude list.
func (p *Prefilter) excludedKeyword(symbol, name string) string {
	if len(p.excluded) == 0 {
		return ""
	}
	notWord := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
	for _, field := range []string{symbol, name} {
		for _, w := range strings.FieldsFunc(strings.ToLower(field), notWord) {
			if p.excluded[w] {
				return w
			}
		}
	}
	return ""
}
