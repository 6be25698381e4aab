package birdeye

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// DefaultStreamURL is the public websocket endpoint for Solana.
const DefaultStreamURL = "wss://public-api.birdeye.so/socket/solana"

// PriceSource returns a current USD price.
type PriceSource interface {
	Price(ctx context.Context, address string) (float64, error)
}

// StreamConfig configures PriceStream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// MaxPriceAge is how long a streamed price is served before falling back to REST.
	MaxPriceAge time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxPriceAge:       60 * time.Second,
	}
}

type streamedPrice struct {
	value float64
	at    time.Time
}

// PriceStream keeps the latest streamed price per subscribed token and
// falls back to a REST PriceSource when the streamed value is missing or stale.
type PriceStream struct {
	endpoint string
	config   StreamConfig
	fallback PriceSource
	log      zerolog.Logger
	clock    func() time.Time

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subscribed holds addresses to restore after reconnect
	subscribed map[string]struct{}
	prices     map[string]streamedPrice
	mu         sync.RWMutex

	done         chan struct{}
	wg           sync.WaitGroup
	reconnecting atomic.Bool
}

// StreamURL builds the websocket URL carrying the API key.
func StreamURL(base, apiKey string) string {
	if base == "" {
		base = DefaultStreamURL
	}
	return base + "?x-api-key=" + url.QueryEscape(apiKey)
}

// NewPriceStream connects to endpoint and starts the read and ping loops.
func NewPriceStream(ctx context.Context, endpoint string, fallback PriceSource, config *StreamConfig, log zerolog.Logger) (*PriceStream, error) {
	return newPriceStream(ctx, endpoint, fallback, config, log, time.Now)
}

func newPriceStream(ctx context.Context, endpoint string, fallback PriceSource, config *StreamConfig, log zerolog.Logger, clock func() time.Time) (*PriceStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &PriceStream{
		endpoint:   endpoint,
		config:     cfg,
		fallback:   fallback,
		log:        log.With().Str("component", "birdeye_stream").Logger(),
		clock:      clock,
		subscribed: make(map[string]struct{}),
		prices:     make(map[string]streamedPrice),
		done:       make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

func (s *PriceStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"echo-protocol"},
	}
	header := http.Header{}
	header.Set("Origin", "ws://public-api.birdeye.so")

	conn, _, err := dialer.DialContext(ctx, s.endpoint, header)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Subscribe starts streaming prices for address.
func (s *PriceStream) Subscribe(address string) error {
	s.mu.Lock()
	s.subscribed[address] = struct{}{}
	s.mu.Unlock()
	return s.send(subscribeMessage("SUBSCRIBE_PRICE", address))
}

// Unsubscribe stops streaming prices for address and forgets its last price.
func (s *PriceStream) Unsubscribe(address string) error {
	s.mu.Lock()
	delete(s.subscribed, address)
	delete(s.prices, address)
	s.mu.Unlock()
	return s.send(subscribeMessage("UNSUBSCRIBE_PRICE", address))
}

// Sync makes the subscription set equal to addresses.
func (s *PriceStream) Sync(addresses []string) error {
	want := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		want[a] = struct{}{}
	}

	s.mu.RLock()
	var add, remove []string
	for a := range want {
		if _, ok := s.subscribed[a]; !ok {
			add = append(add, a)
		}
	}
	for a := range s.subscribed {
		if _, ok := want[a]; !ok {
			remove = append(remove, a)
		}
	}
	s.mu.RUnlock()

	for _, a := range remove {
		if err := s.Unsubscribe(a); err != nil {
			return err
		}
	}
	for _, a := range add {
		if err := s.Subscribe(a); err != nil {
			return err
		}
	}
	return nil
}

// Price returns the streamed price if fresh, otherwise asks the fallback source.
func (s *PriceStream) Price(ctx context.Context, address string) (float64, error) {
	s.mu.RLock()
	p, ok := s.prices[address]
	s.mu.RUnlock()

	if ok && s.clock().Sub(p.at) <= s.config.MaxPriceAge {
		return p.value, nil
	}
	if s.fallback == nil {
		return 0, fmt.Errorf("no streamed price for %s", address)
	}
	return s.fallback.Price(ctx, address)
}

// Close closes the websocket connection.
func (s *PriceStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *PriceStream) send(msg interface{}) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		// Reconnect resubscribes from s.subscribed.
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// readLoop reads messages and records price updates.
func (s *PriceStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			s.log.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("price stream read failed")
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

func (s *PriceStream) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Retried on the next read error
		s.log.Warn().Err(err).Msg("price stream reconnect failed")
		return
	}

	s.resubscribeAll()
}

func (s *PriceStream) resubscribeAll() {
	s.mu.RLock()
	addrs := make([]string, 0, len(s.subscribed))
	for a := range s.subscribed {
		addrs = append(addrs, a)
	}
	s.mu.RUnlock()

	for _, a := range addrs {
		if err := s.send(subscribeMessage("SUBSCRIBE_PRICE", a)); err != nil {
			s.log.Warn().Err(err).Str("address", a).Msg("resubscribe failed")
		}
	}
}

func (s *PriceStream) handleMessage(message []byte) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.log.Debug().Err(err).Msg("ignoring malformed stream message")
		return
	}

	switch msg.Type {
	case "PRICE_DATA":
		var d priceData
		if err := json.Unmarshal(msg.Data, &d); err != nil || d.Address == "" || d.Close <= 0 {
			return
		}
		s.mu.Lock()
		if _, ok := s.subscribed[d.Address]; ok {
			s.prices[d.Address] = streamedPrice{value: d.Close, at: s.clock()}
		}
		s.mu.Unlock()
	case "ERROR":
		s.log.Warn().RawJSON("data", msg.Data).Msg("price stream error message")
	}
}

func (s *PriceStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				// A dead connection surfaces as a read error.
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

// Stream message types

type streamMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type subscribeData struct {
	QueryType string `json:"queryType"`
	ChartType string `json:"chartType"`
	Address   string `json:"address"`
	Currency  string `json:"currency"`
}

type subscribeRequest struct {
	Type string        `json:"type"`
	Data subscribeData `json:"data"`
}

func subscribeMessage(kind, address string) subscribeRequest {
	return subscribeRequest{
		Type: kind,
		Data: subscribeData{
			QueryType: "simple",
			ChartType: "1m",
			Address:   address,
			Currency:  "usd",
		},
	}
}

type priceData struct {
	Address  string  `json:"address"`
	Close    float64 `json:"c"`
	UnixTime int64   `json:"unixTime"`
}
