package memory

import (
	"context"
	"sync"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu      sync.RWMutex
	account *domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{}
}

// Load returns the account. Returns ErrNotFound if nothing was saved.
func (s *AccountStore) Load(_ context.Context) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil, storage.ErrNotFound
	}
	copy := *s.account
	return &copy, nil
}

// Save replaces the stored account.
func (s *AccountStore) Save(_ context.Context, a *domain.Account) error {
	if a == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *a
	s.account = &copy
	return nil
}

var _ storage.AccountStore = (*AccountStore)(nil)
