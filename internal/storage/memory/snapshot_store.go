package memory

import (
	"context"
	"sort"
	"sync"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.PortfolioSnapshot // keyed by timestamp_ms
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[int64]*domain.PortfolioSnapshot),
	}
}

// Insert appends a snapshot. Returns ErrDuplicateKey if timestamp_ms exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.TimestampMs]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *snap
	s.data[snap.TimestampMs] = &copy
	return nil
}

// List retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
func (s *SnapshotStore) List(_ context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PortfolioSnapshot
	for ts, snap := range s.data {
		if ts >= start && ts <= end {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
