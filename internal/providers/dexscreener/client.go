// Package dexscreener is a client for the DexScreener public pairs API.
package dexscreener

import (
	"context"
	"net/url"
	"sort"

	"solana-revival-lab/internal/providers"
)

// DefaultBaseURL is the public REST endpoint.
const DefaultBaseURL = "https://api.dexscreener.com"

// Pair is one trading pair of a token.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Txns struct {
		H1  TxnCount `json:"h1"`
		H24 TxnCount `json:"h24"`
	} `json:"txns"`
	MarketCap     float64 `json:"marketCap"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"` // ms
}

// TxnCount is a buy/sell count over one window.
type TxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// LiquidityUSD returns the pool liquidity, zero when unknown.
func (p *Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

type tokensResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Client calls DexScreener.
type Client struct {
	baseURL   string
	transport *providers.Transport
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, transport *providers.Transport) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if transport == nil {
		transport = providers.NewTransport("dexscreener")
	}
	return &Client{baseURL: baseURL, transport: transport}
}

// TokenPairs returns all pairs of a token sorted by liquidity, most liquid first.
// A token without pairs yields an empty slice.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	var resp tokensResponse
	u := c.baseURL + "/latest/dex/tokens/" + url.PathEscape(address)
	if err := c.transport.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	pairs := resp.Pairs
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].LiquidityUSD() > pairs[j].LiquidityUSD()
	})
	return pairs, nil
}
