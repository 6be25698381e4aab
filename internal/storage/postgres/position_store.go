package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	id, token_address, symbol, revival_score,
	entry_time, entry_price, market_price_at_entry,
	stop_loss_price, take_profit_1_price, take_profit_2_price,
	position_size_usd, quantity_usd, entry_fee_usd,
	remaining_pct, status, current_price, current_pnl_pct,
	last_update, closed_at, exit_count
`

// Upsert writes the full position row, replacing any previous version.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20
		)
		ON CONFLICT (id) DO UPDATE SET
			remaining_pct = EXCLUDED.remaining_pct,
			status = EXCLUDED.status,
			current_price = EXCLUDED.current_price,
			current_pnl_pct = EXCLUDED.current_pnl_pct,
			last_update = EXCLUDED.last_update,
			closed_at = EXCLUDED.closed_at,
			exit_count = EXCLUDED.exit_count
	`

	if _, err := s.pool.Exec(ctx, query, positionArgs(p)...); err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// ListOpen retrieves all open positions, ordered by entry_time ASC.
func (s *PositionStore) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY entry_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(domain.PositionOpen))
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListAll retrieves every position, ordered by entry_time ASC.
func (s *PositionStore) ListAll(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + `
		FROM positions
		ORDER BY entry_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// DeleteAll removes every position.
func (s *PositionStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("delete positions: %w", err)
	}
	return nil
}

// positionArgs lists the row values in positionColumns order.
func positionArgs(p *domain.Position) []any {
	return []any{
		p.ID, p.TokenAddress, p.Symbol, p.RevivalScore,
		p.EntryTime, p.EntryPrice, p.MarketPriceAtEntry,
		p.StopLossPrice, p.TakeProfit1Price, p.TakeProfit2Price,
		p.PositionSizeUSD, p.QuantityUSD, p.EntryFeeUSD,
		p.RemainingPct, string(p.Status), p.CurrentPrice, p.CurrentPnLPct,
		p.LastUpdate, p.ClosedAt, p.ExitCount,
	}
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var status string
	err := row.Scan(
		&p.ID, &p.TokenAddress, &p.Symbol, &p.RevivalScore,
		&p.EntryTime, &p.EntryPrice, &p.MarketPriceAtEntry,
		&p.StopLossPrice, &p.TakeProfit1Price, &p.TakeProfit2Price,
		&p.PositionSizeUSD, &p.QuantityUSD, &p.EntryFeeUSD,
		&p.RemainingPct, &status, &p.CurrentPrice, &p.CurrentPnLPct,
		&p.LastUpdate, &p.ClosedAt, &p.ExitCount,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PositionStatus(status)
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var result []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return result, nil
}
