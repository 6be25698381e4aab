package birdeye

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr := providers.NewTransport("birdeye",
		providers.WithRateLimit(0, 0),
		providers.WithMaxRetries(0),
		providers.WithRetryDelay(time.Millisecond),
	)
	return NewClient(server.URL, "test-key", tr)
}

func TestClient_TokenOverview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/token_overview", r.URL.Path)
		assert.Equal(t, "mintA", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"success":true,"data":{
			"symbol":"REV","name":"Revival","liquidity":52000.5,"mc":1200000,"price":0.0012,
			"v24hUSD":88000,"v1hUSD":4000,"supply":1000000000,"holder":2300,
			"buy1h":120,"sell1h":80,"uniqueWallet24h":640,"watch":12,"view24h":400,
			"creationTime":1700000000}}`))
	})

	o, err := c.TokenOverview(context.Background(), "mintA")
	require.NoError(t, err)
	assert.Equal(t, "mintA", o.Address)
	assert.Equal(t, "REV", o.Symbol)
	assert.Equal(t, 52000.5, o.Liquidity)
	assert.Equal(t, 1200000.0, o.MarketCap)
	assert.Equal(t, 120, o.Buy1h)
	assert.Equal(t, 640, o.UniqueWallet24h)
	require.NotNil(t, o.CreationTime)
	assert.Equal(t, int64(1700000000), *o.CreationTime)
}

func TestClient_Unsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})

	_, err := c.TokenOverview(context.Background(), "mintA")
	if !errors.Is(err, ErrUnsuccessful) {
		t.Errorf("expected ErrUnsuccessful, got %v", err)
	}
}

func TestClient_OHLCV(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/ohlcv", r.URL.Path)
		assert.Equal(t, "1H", r.URL.Query().Get("type"))
		assert.Equal(t, "100", r.URL.Query().Get("time_from"))
		assert.Equal(t, "200", r.URL.Query().Get("time_to"))
		w.Write([]byte(`{"success":true,"data":{"items":[
			{"unixTime":100,"o":1,"h":2,"l":0.5,"c":1.5,"v":10},
			{"unixTime":160,"o":1.5,"h":1.6,"l":1.1,"c":1.2,"v":20}]}}`))
	})

	candles, err := c.OHLCV(context.Background(), "mintA", "1H", 100, 200)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(160), candles[1].UnixTime)
	assert.Equal(t, 1.2, candles[1].Close)
	assert.Equal(t, 20.0, candles[1].Volume)
}

func TestClient_TradersHoldersAndList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/defi/v2/tokens/top_traders":
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"success":true,"data":{"items":[{"owner":"w1","value_usd":150000.5}]}}`))
		case "/defi/v3/token/holder":
			w.Write([]byte(`{"success":true,"data":{"items":[{"owner":"h1","uiAmount":5000},{"owner":"h2","uiAmount":2500}]}}`))
		case "/defi/tokenlist":
			assert.Equal(t, "v24hUSD", r.URL.Query().Get("sort_by"))
			assert.Equal(t, "50", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"success":true,"data":{"tokens":[{"address":"a1","symbol":"A","liquidity":30000,"v24hUSD":9000,"mc":500000}]}}`))
		case "/defi/price":
			w.Write([]byte(`{"success":true,"data":{"value":0.42,"updateUnixTime":1700000000}}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	traders, err := c.TopTraders(ctx, "mintA", 20)
	require.NoError(t, err)
	require.Len(t, traders, 1)
	assert.Equal(t, 150000.5, traders[0].ValueUSD)

	holders, err := c.TopHolders(ctx, "mintA", 10)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, 2500.0, holders[1].UIAmount)

	tokens, err := c.TokenList(ctx, "v24hUSD", 50, 50)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "a1", tokens[0].Address)
	assert.Equal(t, 9000.0, tokens[0].Volume24hUSD)

	price, err := c.Price(ctx, "mintA")
	require.NoError(t, err)
	assert.Equal(t, 0.42, price)
}

func TestClient_MemeList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/defi/v3/token/meme/list", r.URL.Path)
		assert.Equal(t, "liquidity", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		// No success field on this endpoint.
		w.Write([]byte(`{"data":{"items":[{"address":"m1","symbol":"PEPE","name":"Pepe","liquidity":42000,"market_cap":900000,"volume_24h_usd":12000}]}}`))
	})

	tokens, err := c.MemeList(context.Background(), "liquidity", 100, 50)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "m1", tokens[0].Address)
	assert.Equal(t, 42000.0, tokens[0].Liquidity)
	assert.Equal(t, 900000.0, tokens[0].MarketCap)
	assert.Equal(t, 12000.0, tokens[0].Volume24hUSD)
}

func TestClient_PriceRejectsZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"value":0}}`))
	})

	_, err := c.Price(context.Background(), "mintA")
	assert.Error(t, err)
}
