package birdeye

import "encoding/json"

// envelope is the common BirdEye response wrapper. The meme list omits success.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// Overview is the token_overview payload. Absent fields decode as zero.
type Overview struct {
	Address         string  `json:"address"`
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Decimals        int     `json:"decimals"`
	Liquidity       float64 `json:"liquidity"`
	MarketCap       float64 `json:"mc"`
	Price           float64 `json:"price"`
	Volume24hUSD    float64 `json:"v24hUSD"`
	Volume1hUSD     float64 `json:"v1hUSD"`
	Supply          float64 `json:"supply"`
	Holder          int     `json:"holder"`
	Buy1h           int     `json:"buy1h"`
	Sell1h          int     `json:"sell1h"`
	Buy24h          int     `json:"buy24h"`
	Sell24h         int     `json:"sell24h"`
	UniqueWallet24h int     `json:"uniqueWallet24h"`
	Watch           int     `json:"watch"`
	View24h         int     `json:"view24h"`
	// CreationTime is unix seconds; nil when BirdEye does not know it.
	CreationTime *int64 `json:"creationTime"`
}

// Candle is one OHLCV bar.
type Candle struct {
	UnixTime int64   `json:"unixTime"` // seconds
	Open     float64 `json:"o"`
	High     float64 `json:"h"`
	Low      float64 `json:"l"`
	Close    float64 `json:"c"`
	Volume   float64 `json:"v"`
}

// Trader is one entry of the top traders listing.
type Trader struct {
	Owner    string  `json:"owner"`
	ValueUSD float64 `json:"value_usd"`
	Volume   float64 `json:"volume"`
	Trade    int     `json:"trade"`
}

// Holder is one entry of the holder listing.
type Holder struct {
	Owner    string  `json:"owner"`
	UIAmount float64 `json:"uiAmount"`
}

// ListedToken is one entry of the token list.
type ListedToken struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Liquidity    float64 `json:"liquidity"`
	MarketCap    float64 `json:"mc"`
	Volume24hUSD float64 `json:"v24hUSD"`
	Price        float64 `json:"price"`
}

type itemsPayload[T any] struct {
	Items []T `json:"items"`
}

// memeListItem is one entry of the meme token list, which names its fields
// differently from the generic token list.
type memeListItem struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Liquidity    float64 `json:"liquidity"`
	MarketCap    float64 `json:"market_cap"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	Price        float64 `json:"price"`
}

func (m memeListItem) listed() ListedToken {
	return ListedToken{
		Address:      m.Address,
		Symbol:       m.Symbol,
		Name:         m.Name,
		Liquidity:    m.Liquidity,
		MarketCap:    m.MarketCap,
		Volume24hUSD: m.Volume24hUSD,
		Price:        m.Price,
	}
}

type tokenListPayload struct {
	Tokens []ListedToken `json:"tokens"`
}

type pricePayload struct {
	Value      float64 `json:"value"`
	UpdateUnix int64   `json:"updateUnixTime"`
}
