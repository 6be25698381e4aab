package goplus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/providers"
)

func TestFlag_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Flag
	}{
		{`"1"`, true},
		{`"0"`, false},
		{`1`, true},
		{`0`, false},
		{`null`, false},
		{`{"status":"1","authority":[]}`, true},
		{`{"status":"0"}`, false},
	}

	for _, tt := range tests {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &f), tt.raw)
		if f != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.raw, tt.want, f)
		}
	}
}

func TestClient_TokenSecurity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/token_security/solana", r.URL.Path)
		assert.Equal(t, "MintAbc", r.URL.Query().Get("contract_addresses"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"code":1,"message":"OK","result":{"mintabc":{
			"is_honeypot":"0","is_mintable":{"status":"1"},"is_blacklisted":"1",
			"can_take_back_ownership":"0","holder_count":"1200"}}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key", providers.NewTransport("goplus", providers.WithRateLimit(0, 0)))
	sec, ok, err := c.TokenSecurity(context.Background(), "MintAbc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, bool(sec.IsHoneypot))
	assert.True(t, bool(sec.IsMintable))
	assert.True(t, bool(sec.IsBlacklisted))
	assert.Equal(t, "1200", sec.HolderCount)
}

func TestClient_TokenSecurity_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"code":1,"result":null}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", providers.NewTransport("goplus", providers.WithRateLimit(0, 0)))
	sec, ok, err := c.TokenSecurity(context.Background(), "MintAbc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, sec)
}
