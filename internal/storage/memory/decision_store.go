package memory

import (
	"context"
	"sort"
	"sync"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScoreDecision // keyed by decision_id
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		data: make(map[string]*domain.ScoreDecision),
	}
}

// Insert adds a decision. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionStore) Insert(_ context.Context, d *domain.ScoreDecision) error {
	if d == nil || d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.DecisionID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *d
	s.data[d.DecisionID] = &copy
	return nil
}

// List retrieves decisions evaluated within [start, end] (inclusive).
func (s *DecisionStore) List(_ context.Context, start, end int64) ([]*domain.ScoreDecision, error) {
	return s.filter(func(d *domain.ScoreDecision) bool {
		return d.EvaluatedAt >= start && d.EvaluatedAt <= end
	}), nil
}

// GetByAddress retrieves all decisions for a token.
func (s *DecisionStore) GetByAddress(_ context.Context, address string) ([]*domain.ScoreDecision, error) {
	return s.filter(func(d *domain.ScoreDecision) bool {
		return d.Address == address
	}), nil
}

func (s *DecisionStore) filter(keep func(*domain.ScoreDecision) bool) []*domain.ScoreDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoreDecision
	for _, d := range s.data {
		if keep(d) {
			copy := *d
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].EvaluatedAt != result[j].EvaluatedAt {
			return result[i].EvaluatedAt < result[j].EvaluatedAt
		}
		return result[i].Address < result[j].Address
	})

	return result
}

var _ storage.DecisionStore = (*DecisionStore)(nil)
