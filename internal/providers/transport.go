// Package providers holds the HTTP transport shared by the external data clients.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRPS         = 5.0
	DefaultBurst       = 5

	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second

	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes = 16 << 20
)

var (
	// ErrUnavailable is returned while the provider's circuit is open.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrResponseTooLarge is returned when a body exceeds the read limit.
	ErrResponseTooLarge = errors.New("response body too large")
)

// callerDoneError marks an attempt that ended because the caller's context did,
// not because the provider failed.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

// StatusError is a non-200 HTTP response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Observer receives the outcome of every request attempt.
type Observer func(provider string, elapsed time.Duration, err error)

// Transport performs rate limited, circuit broken, retried HTTP requests for one provider.
type Transport struct {
	name        string
	client      *http.Client
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	maxBody     int64
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	observe     Observer
	log         zerolog.Logger
}

// TransportOption configures Transport.
type TransportOption func(*Transport)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) TransportOption {
	return func(t *Transport) {
		t.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = client
	}
}

// WithRateLimit sets the token bucket. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) TransportOption {
	return func(t *Transport) {
		if rps <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver registers a per-attempt callback.
func WithObserver(o Observer) TransportOption {
	return func(t *Transport) {
		t.observe = o
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.log = l
	}
}

// WithBreaker overrides the circuit breaker thresholds: the breaker opens after
// consecutiveFailures failed attempts and probes again after openTimeout.
func WithBreaker(consecutiveFailures uint32, openTimeout time.Duration) TransportOption {
	return func(t *Transport) {
		t.breaker = newBreaker(t, consecutiveFailures, openTimeout)
	}
}

// NewTransport creates a transport for the named provider.
func NewTransport(name string, opts ...TransportOption) *Transport {
	t := &Transport{
		name:        name,
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		maxBody:     DefaultMaxResponseBytes,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRPS), DefaultBurst),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.breaker == nil {
		t.breaker = newBreaker(t, DefaultBreakerFailures, DefaultBreakerTimeout)
	}
	return t
}

func newBreaker(t *Transport, consecutiveFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        t.name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		// Client errors and caller cancellation say nothing about provider health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var done *callerDoneError
			if errors.As(err, &done) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
}

// Name returns the provider name.
func (t *Transport) Name() string {
	return t.name
}

// GetJSON performs a GET and decodes the JSON body into out.
func (t *Transport) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	body, err := t.Do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", t.name, err)
	}
	return nil
}

// PostJSON marshals payload, POSTs it and returns the raw response body.
func (t *Transport) PostJSON(ctx context.Context, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", t.name, err)
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return t.Do(ctx, http.MethodPost, url, h, body)
}

// Do executes the request with retries and exponential backoff.
// Transport errors, 429 and 5xx are retried; other statuses are returned immediately.
func (t *Transport) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	delay := t.retryDelay
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * t.backoffMult)
			if delay > t.maxDelay {
				delay = t.maxDelay
			}
		}

		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", t.name, err)
		}

		start := time.Now()
		result, err := t.breaker.Execute(func() (interface{}, error) {
			return t.attempt(ctx, method, url, headers, body)
		})
		if t.observe != nil {
			t.observe(t.name, time.Since(start), err)
		}
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", t.name, ErrUnavailable)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, err
		}
		if errors.Is(err, ErrResponseTooLarge) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		t.log.Debug().Err(err).Str("provider", t.name).Int("attempt", attempt+1).Msg("request failed, retrying")
	}

	return nil, fmt.Errorf("%s: max retries exceeded: %w", t.name, lastErr)
}

func (t *Transport) attempt(parent context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, t.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if parent.Err() != nil {
			return nil, &callerDoneError{err: parent.Err()}
		}
		return nil, fmt.Errorf("%s: http request: %w", t.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		if parent.Err() != nil {
			return nil, &callerDoneError{err: parent.Err()}
		}
		return nil, fmt.Errorf("%s: read response: %w", t.name, err)
	}
	if int64(len(respBody)) > t.maxBody {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", t.name, ErrResponseTooLarge, t.maxBody)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(respBody)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{Provider: t.name, StatusCode: resp.StatusCode, Body: snippet}
	}
	return respBody, nil
}
