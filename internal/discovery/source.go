// Package discovery lists candidate tokens and applies the market prefilter.
package discovery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/providers/birdeye"
)

// Default listing parameters.
const (
	DefaultSortBy     = "v24hUSD"
	DefaultMemeSortBy = "liquidity"
	DefaultPageSize   = 50
	DefaultPages      = 4
)

// TokenLister returns one page of a ranked token list.
type TokenLister interface {
	TokenList(ctx context.Context, sortBy string, offset, limit int) ([]birdeye.ListedToken, error)
	MemeList(ctx context.Context, sortBy string, offset, limit int) ([]birdeye.ListedToken, error)
}

// SourceConfig controls which list is paged and how.
// With NativeMemeList the meme token list is paged by MemeSortBy;
// otherwise the general token list is paged by SortBy.
type SourceConfig struct {
	NativeMemeList bool   `yaml:"native_meme_list"`
	MemeSortBy     string `yaml:"meme_sort_by"`
	SortBy         string `yaml:"sort_by"`
	PageSize       int    `yaml:"page_size"`
	Pages          int    `yaml:"pages"`
}

// DefaultSourceConfig returns the reference paging: four pages of 50 from the
// meme list by liquidity.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		NativeMemeList: true,
		MemeSortBy:     DefaultMemeSortBy,
		SortBy:         DefaultSortBy,
		PageSize:       DefaultPageSize,
		Pages:          DefaultPages,
	}
}

// Source produces candidates from the BirdEye token list.
type Source struct {
	lister TokenLister
	cfg    SourceConfig
	log    zerolog.Logger
}

// NewSource creates a source. Zero config fields take defaults.
func NewSource(lister TokenLister, cfg SourceConfig, logger zerolog.Logger) *Source {
	if cfg.SortBy == "" {
		cfg.SortBy = DefaultSortBy
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}
	return &Source{
		lister: lister,
		cfg:    cfg,
		log:    logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover pages through the token list and returns unique candidates in rank order.
// A failed first page is an error; a later failure returns what was collected so far.
func (s *Source) Discover(ctx context.Context) ([]domain.Candidate, error) {
	seen := make(map[string]bool)
	var out []domain.Candidate

	for page := 0; page < s.cfg.Pages; page++ {
		offset := page * s.cfg.PageSize
		tokens, err := s.page(ctx, offset)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("list tokens: %w", err)
			}
			s.log.Warn().Err(err).Int("offset", offset).Msg("token list page failed, keeping earlier pages")
			break
		}

		for _, t := range tokens {
			if t.Address == "" || seen[t.Address] {
				continue
			}
			seen[t.Address] = true
			out = append(out, candidateFromListing(t))
		}

		if len(tokens) < s.cfg.PageSize {
			break
		}
	}

	s.log.Info().
		Bool("meme_list", s.cfg.NativeMemeList).
		Int("candidates", len(out)).
		Msg("discovery complete")
	return out, nil
}

func (s *Source) page(ctx context.Context, offset int) ([]birdeye.ListedToken, error) {
	if s.cfg.NativeMemeList {
		return s.lister.MemeList(ctx, s.cfg.MemeSortBy, offset, s.cfg.PageSize)
	}
	return s.lister.TokenList(ctx, s.cfg.SortBy, offset, s.cfg.PageSize)
}

// candidateFromListing maps a listing row. The list has no hourly volume,
// so it is estimated as a 24th of the daily volume.
func candidateFromListing(t birdeye.ListedToken) domain.Candidate {
	return domain.Candidate{
		Address:      t.Address,
		Symbol:       t.Symbol,
		Name:         t.Name,
		LiquidityUSD: t.Liquidity,
		Volume24hUSD: t.Volume24hUSD,
		Volume1hUSD:  t.Volume24hUSD / 24,
		MarketCapUSD: t.MarketCap,
	}
}
