// Package cache stores slow-changing token metrics between pipeline runs.
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// MetricsCache is a byte-oriented TTL cache.
type MetricsCache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value for ttl. A zero ttl keeps the value until evicted.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// GetFloat reads a float64 stored by PutFloat.
func GetFloat(ctx context.Context, c MetricsCache, key string) (float64, bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	if len(raw) != 8 {
		return 0, false, fmt.Errorf("cache value %q: expected 8 bytes, got %d", key, len(raw))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(raw)), true, nil
}

// PutFloat stores a float64 as 8 big-endian bytes.
func PutFloat(ctx context.Context, c MetricsCache, key string, v float64, ttl time.Duration) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	return c.Put(ctx, key, buf[:], ttl)
}

// TokenAgeKey is the cache key for a token's age anchor.
func TokenAgeKey(address string) string {
	return "token_age:" + address
}
