// Package birdeye is a client for the BirdEye public REST and websocket APIs.
package birdeye

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"solana-revival-lab/internal/providers"
)

// DefaultBaseURL is the public REST endpoint.
const DefaultBaseURL = "https://public-api.birdeye.so"

// ErrUnsuccessful is returned when the envelope reports success=false.
var ErrUnsuccessful = errors.New("birdeye: success=false")

// Client calls BirdEye REST endpoints for Solana tokens.
type Client struct {
	baseURL   string
	apiKey    string
	transport *providers.Transport
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, transport *providers.Transport) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if transport == nil {
		transport = providers.NewTransport("birdeye")
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, transport: transport}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	headers := map[string]string{
		"X-API-KEY": c.apiKey,
		"x-chain":   "solana",
	}

	var env envelope
	if err := c.transport.GetJSON(ctx, u, headers, &env); err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		if env.Message != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
		}
		return ErrUnsuccessful
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("birdeye %s: empty data", path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("birdeye %s: decode data: %w", path, err)
	}
	return nil
}

// TokenOverview returns market, holder and activity figures for a token.
func (c *Client) TokenOverview(ctx context.Context, address string) (*Overview, error) {
	var o Overview
	if err := c.get(ctx, "/defi/token_overview", url.Values{"address": {address}}, &o); err != nil {
		return nil, err
	}
	if o.Address == "" {
		o.Address = address
	}
	return &o, nil
}

// OHLCV returns candles of the given timeframe (e.g. 1H, 4H, 1D) in [from, to] unix seconds.
func (c *Client) OHLCV(ctx context.Context, address, timeframe string, from, to int64) ([]Candle, error) {
	q := url.Values{
		"address":   {address},
		"type":      {timeframe},
		"time_from": {strconv.FormatInt(from, 10)},
		"time_to":   {strconv.FormatInt(to, 10)},
	}
	var p itemsPayload[Candle]
	if err := c.get(ctx, "/defi/ohlcv", q, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// TopTraders returns the most active traders of a token over 24h.
func (c *Client) TopTraders(ctx context.Context, address string, limit int) ([]Trader, error) {
	q := url.Values{
		"address":    {address},
		"time_frame": {"24h"},
		"sort_by":    {"volume"},
		"sort_type":  {"desc"},
		"offset":     {"0"},
		"limit":      {strconv.Itoa(limit)},
	}
	var p itemsPayload[Trader]
	if err := c.get(ctx, "/defi/v2/tokens/top_traders", q, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// TopHolders returns the largest holders, largest first.
func (c *Client) TopHolders(ctx context.Context, address string, limit int) ([]Holder, error) {
	q := url.Values{
		"address": {address},
		"offset":  {"0"},
		"limit":   {strconv.Itoa(limit)},
	}
	var p itemsPayload[Holder]
	if err := c.get(ctx, "/defi/v3/token/holder", q, &p); err != nil {
		return nil, err
	}
	return p.Items, nil
}

// Price returns the current USD price of a token.
func (c *Client) Price(ctx context.Context, address string) (float64, error) {
	var p pricePayload
	if err := c.get(ctx, "/defi/price", url.Values{"address": {address}}, &p); err != nil {
		return 0, err
	}
	if p.Value <= 0 {
		return 0, fmt.Errorf("birdeye price %s: non-positive value %v", address, p.Value)
	}
	return p.Value, nil
}

// TokenList returns one page of the token list sorted descending by sortBy (e.g. v24hUSD).
func (c *Client) TokenList(ctx context.Context, sortBy string, offset, limit int) ([]ListedToken, error) {
	q := url.Values{
		"sort_by":   {sortBy},
		"sort_type": {"desc"},
		"offset":    {strconv.Itoa(offset)},
		"limit":     {strconv.Itoa(limit)},
	}
	var p tokenListPayload
	if err := c.get(ctx, "/defi/tokenlist", q, &p); err != nil {
		return nil, err
	}
	return p.Tokens, nil
}

// MemeList returns one page of the meme token list (pump.fun, Moonshot and similar
// launches). An empty sortBy keeps the provider's order.
func (c *Client) MemeList(ctx context.Context, sortBy string, offset, limit int) ([]ListedToken, error) {
	q := url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	if sortBy != "" {
		q.Set("sort_by", sortBy)
		q.Set("sort_type", "desc")
	}
	var p itemsPayload[memeListItem]
	if err := c.get(ctx, "/defi/v3/token/meme/list", q, &p); err != nil {
		return nil, err
	}
	out := make([]ListedToken, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, item.listed())
	}
	return out, nil
}
