package clickhouse

import (
	"context"
	"fmt"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert appends a snapshot. Returns ErrDuplicateKey if timestamp_ms exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	// MergeTree does not enforce uniqueness
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM portfolio_snapshots WHERE timestamp_ms = ?`,
		snap.TimestampMs,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_snapshots (
			timestamp_ms, total_value_usd, cash_balance_usd, positions_value_usd,
			open_count, pnl_usd, pnl_pct
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		snap.TimestampMs, snap.TotalValueUSD, snap.CashBalanceUSD, snap.PositionsValueUSD,
		uint32(snap.OpenCount), snap.PnLUSD, snap.PnLPct,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// List retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
func (s *SnapshotStore) List(ctx context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error) {
	query := `
		SELECT
			timestamp_ms, total_value_usd, cash_balance_usd, positions_value_usd,
			open_count, pnl_usd, pnl_pct
		FROM portfolio_snapshots
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows chRows) ([]*domain.PortfolioSnapshot, error) {
	var result []*domain.PortfolioSnapshot
	for rows.Next() {
		var snap domain.PortfolioSnapshot
		var openCount uint32
		err := rows.Scan(
			&snap.TimestampMs, &snap.TotalValueUSD, &snap.CashBalanceUSD, &snap.PositionsValueUSD,
			&openCount, &snap.PnLUSD, &snap.PnLPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.OpenCount = int(openCount)
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return result, nil
}
