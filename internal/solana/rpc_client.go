// Package solana is a minimal JSON-RPC client for a Solana node (e.g. Helius).
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"solana-revival-lab/internal/providers"
)

// Paging limits for signature history.
const (
	MaxSignaturesPerPage = 1000
	DefaultMaxPages      = 10
)

// HTTPClient calls a Solana JSON-RPC 2.0 endpoint through a providers.Transport.
type HTTPClient struct {
	endpoint  string
	transport *providers.Transport
	maxPages  int
	requestID atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTransport sets the transport used for requests.
func WithTransport(t *providers.Transport) ClientOption {
	return func(c *HTTPClient) {
		c.transport = t
	}
}

// WithMaxPages bounds how far back CreationTime pages.
func WithMaxPages(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxPages = n
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = providers.NewTransport("helius")
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("solana rpc %d: %s", e.Code, e.Message)
}

// call posts one JSON-RPC request. The transport retries network failures;
// an RPC error object is returned as *RPCError without retry.
func (c *HTTPClient) call(ctx context.Context, method string, result any, params ...any) error {
	body, err := c.transport.PostJSON(ctx, c.endpoint, nil, rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// GetSignaturesForAddress returns one page of signatures for an address, newest first.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	params := []any{address}
	if opts != nil && *opts != (SignaturesOpts{}) {
		params = append(params, opts)
	}

	var sigs []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", &sigs, params...); err != nil {
		return nil, err
	}
	return sigs, nil
}

// CreationTime pages backwards through the address history and returns the block time
// (unix seconds) of the oldest signature found. If the page limit is hit first, the
// oldest time seen so far is returned, so the derived age is a lower bound.
// ok is false when the address has no signature with a block time.
func (c *HTTPClient) CreationTime(ctx context.Context, address string) (int64, bool, error) {
	var (
		before  string
		oldest  int64
		found   bool
		lastSig string
	)

	for page := 0; page < c.maxPages; page++ {
		sigs, err := c.GetSignaturesForAddress(ctx, address, &SignaturesOpts{
			Before: before,
			Limit:  MaxSignaturesPerPage,
		})
		if err != nil {
			return 0, false, fmt.Errorf("signatures page %d: %w", page, err)
		}
		if len(sigs) == 0 {
			break
		}

		for _, s := range sigs {
			if s.BlockTime != nil && (!found || *s.BlockTime < oldest) {
				oldest = *s.BlockTime
				found = true
			}
		}

		lastSig = sigs[len(sigs)-1].Signature
		if len(sigs) < MaxSignaturesPerPage || lastSig == before {
			break
		}
		before = lastSig
	}

	return oldest, found, nil
}
