package memory

import (
	"context"
	"sort"
	"sync"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Trade // keyed by trade_id
	order []string                 // insertion order
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.TradeID] = &copy
	s.order = append(s.order, t.TradeID)
	return nil
}

// GetByPositionID retrieves all trades of a position, ordered by exit_time ASC.
func (s *TradeStore) GetByPositionID(_ context.Context, positionID string) ([]*domain.Trade, error) {
	return s.list(func(t *domain.Trade) bool { return t.PositionID == positionID }), nil
}

// ListAll retrieves every trade, ordered by exit_time ASC.
func (s *TradeStore) ListAll(_ context.Context) ([]*domain.Trade, error) {
	return s.list(func(*domain.Trade) bool { return true }), nil
}

// DeleteAll removes every trade.
func (s *TradeStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.Trade)
	s.order = nil
	return nil
}

func (s *TradeStore) list(keep func(*domain.Trade) bool) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, id := range s.order {
		t := s.data[id]
		if keep(t) {
			copy := *t
			result = append(result, &copy)
		}
	}

	// Stable sort keeps insertion order for equal exit times.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ExitTime < result[j].ExitTime
	})

	return result
}

var _ storage.TradeStore = (*TradeStore)(nil)
