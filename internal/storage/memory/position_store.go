package memory

import (
	"context"
	"sort"
	"sync"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Upsert writes the full position row.
func (s *PositionStore) Upsert(_ context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[p.ID] = &copy
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, id string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

// ListOpen retrieves all open positions, ordered by entry_time ASC.
func (s *PositionStore) ListOpen(_ context.Context) ([]*domain.Position, error) {
	return s.list(func(p *domain.Position) bool { return p.IsOpen() }), nil
}

// ListAll retrieves every position, ordered by entry_time ASC.
func (s *PositionStore) ListAll(_ context.Context) ([]*domain.Position, error) {
	return s.list(func(*domain.Position) bool { return true }), nil
}

// DeleteAll removes every position.
func (s *PositionStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.Position)
	return nil
}

func (s *PositionStore) list(keep func(*domain.Position) bool) []*domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if keep(p) {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].EntryTime != result[j].EntryTime {
			return result[i].EntryTime < result[j].EntryTime
		}
		return result[i].ID < result[j].ID
	})

	return result
}

var _ storage.PositionStore = (*PositionStore)(nil)
