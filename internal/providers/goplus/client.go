// Package goplus is a client for the GoPlus token security API.
package goplus

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"solana-revival-lab/internal/providers"
)

// DefaultBaseURL is the public REST endpoint.
const DefaultBaseURL = "https://api.gopluslabs.io"

// Flag is a GoPlus boolean. The API encodes flags as "1"/"0" strings,
// numbers, or objects carrying a "status" string.
type Flag bool

// UnmarshalJSON accepts every encoding GoPlus uses for flags.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = false
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Status json.RawMessage `json:"status"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		return f.UnmarshalJSON(obj.Status)
	}
	s := strings.Trim(string(data), `"`)
	*f = s == "1" || strings.EqualFold(s, "true")
	return nil
}

// TokenSecurity holds the risk flags for one token.
type TokenSecurity struct {
	IsHoneypot           Flag   `json:"is_honeypot"`
	IsMintable           Flag   `json:"is_mintable"`
	IsBlacklisted        Flag   `json:"is_blacklisted"`
	CanTakeBackOwnership Flag   `json:"can_take_back_ownership"`
	HolderCount          string `json:"holder_count"`
	OwnerAddress         string `json:"owner_address"`
}

type securityResponse struct {
	Code    int                      `json:"code"`
	Message string                   `json:"message"`
	Result  map[string]TokenSecurity `json:"result"`
}

// Client calls GoPlus. The API key is optional.
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
		transport = providers.NewTransport("goplus")
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, transport: transport}
}

// TokenSecurity returns the flags for address. ok is false when GoPlus has no entry.
func (c *Client) TokenSecurity(ctx context.Context, address string) (*TokenSecurity, bool, error) {
	u := c.baseURL + "/api/v1/token_security/solana?contract_addresses=" + url.QueryEscape(address)

	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}

	var resp securityResponse
	if err := c.transport.GetJSON(ctx, u, headers, &resp); err != nil {
		return nil, false, err
	}
	if resp.Result == nil {
		return nil, false, nil
	}

	// Results are keyed by address; lowercase is the documented key.
	if sec, ok := resp.Result[strings.ToLower(address)]; ok {
		return &sec, true, nil
	}
	if sec, ok := resp.Result[address]; ok {
		return &sec, true, nil
	}
	return nil, false, nil
}
