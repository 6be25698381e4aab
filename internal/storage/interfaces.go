package storage

import (
	"context"

	"solana-revival-lab/internal/domain"
)

// PositionStore holds the current snapshot of every position, keyed by id.
type PositionStore interface {
	// Upsert writes the full position row, replacing any previous version.
	Upsert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// ListOpen retrieves all open positions, ordered by entry_time ASC.
	ListOpen(ctx context.Context) ([]*domain.Position, error)

	// ListAll retrieves every position, ordered by entry_time ASC.
	ListAll(ctx context.Context) ([]*domain.Position, error)

	// DeleteAll removes every position. Used when a session is reset.
	DeleteAll(ctx context.Context) error
}

// TradeStore is the append-only log of exit events.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetByPositionID retrieves all trades of a position, ordered by exit_time ASC.
	GetByPositionID(ctx context.Context, positionID string) ([]*domain.Trade, error)

	// ListAll retrieves every trade, ordered by exit_time ASC.
	ListAll(ctx context.Context) ([]*domain.Trade, error)

	// DeleteAll removes every trade. Used when a session is reset.
	DeleteAll(ctx context.Context) error
}

// SnapshotStore is the append-only portfolio time series.
type SnapshotStore interface {
	// Insert appends a snapshot. Returns ErrDuplicateKey if timestamp_ms exists.
	Insert(ctx context.Context, s *domain.PortfolioSnapshot) error

	// List retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
	List(ctx context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error)
}

// DecisionStore records the scoring outcome of every evaluated token.
type DecisionStore interface {
	// Insert adds a decision. Returns ErrDuplicateKey if decision_id exists.
	Insert(ctx context.Context, d *domain.ScoreDecision) error

	// List retrieves decisions evaluated within [start, end] (inclusive), ordered by evaluated_at ASC.
	List(ctx context.Context, start, end int64) ([]*domain.ScoreDecision, error)

	// GetByAddress retrieves all decisions for a token, ordered by evaluated_at ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.ScoreDecision, error)
}

// AccountStore persists the cash state of the paper trading session.
type AccountStore interface {
	// Load returns the account. Returns ErrNotFound if no account has been saved yet.
	Load(ctx context.Context) (*domain.Account, error)

	// Save replaces the stored account.
	Save(ctx context.Context, a *domain.Account) error
}
