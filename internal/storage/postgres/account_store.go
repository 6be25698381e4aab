package postgres

import (
	"context"
	"fmt"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// AccountStore implements storage.AccountStore using a single-row table.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Load returns the account. Returns ErrNotFound if no account has been saved yet.
func (s *AccountStore) Load(ctx context.Context) (*domain.Account, error) {
	query := `
		SELECT initial_balance_usd, cash_balance_usd, updated_at
		FROM paper_account
		WHERE id = 1
	`

	var a domain.Account
	err := s.pool.QueryRow(ctx, query).Scan(&a.InitialBalanceUSD, &a.CashBalanceUSD, &a.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &a, nil
}

// Save replaces the stored account.
func (s *AccountStore) Save(ctx context.Context, a *domain.Account) error {
	if a == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO paper_account (id, initial_balance_usd, cash_balance_usd, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			initial_balance_usd = EXCLUDED.initial_balance_usd,
			cash_balance_usd = EXCLUDED.cash_balance_usd,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, a.InitialBalanceUSD, a.CashBalanceUSD, a.UpdatedAt); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
