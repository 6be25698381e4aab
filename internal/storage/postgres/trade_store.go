package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	trade_id, position_id, token_address, symbol,
	entry_price, entry_time, exit_price, exit_time, exit_type,
	quantity_usd, sell_pct, pnl_usd, pnl_pct, fees_paid, hold_days
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trades (` + tradeColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.PositionID, t.TokenAddress, t.Symbol,
		t.EntryPrice, t.EntryTime, t.ExitPrice, t.ExitTime, string(t.ExitType),
		t.QuantityUSD, t.SellPct, t.PnLUSD, t.PnLPct, t.FeesPaid, t.HoldDays,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetByPositionID retrieves all trades of a position, ordered by exit_time ASC.
func (s *TradeStore) GetByPositionID(ctx context.Context, positionID string) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + `
		FROM trades
		WHERE position_id = $1
		ORDER BY exit_time ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("query trades by position: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListAll retrieves every trade, ordered by exit_time ASC.
func (s *TradeStore) ListAll(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + `
		FROM trades
		ORDER BY exit_time ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DeleteAll removes every trade.
func (s *TradeStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM trades`); err != nil {
		return fmt.Errorf("delete trades: %w", err)
	}
	return nil
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var result []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var exitType string
		err := rows.Scan(
			&t.TradeID, &t.PositionID, &t.TokenAddress, &t.Symbol,
			&t.EntryPrice, &t.EntryTime, &t.ExitPrice, &t.ExitTime, &exitType,
			&t.QuantityUSD, &t.SellPct, &t.PnLUSD, &t.PnLPct, &t.FeesPaid, &t.HoldDays,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.ExitType = domain.ExitType(exitType)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
