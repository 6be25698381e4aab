package clickhouse

import (
	"context"
	"fmt"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

// DecisionStore implements storage.DecisionStore using ClickHouse.
type DecisionStore struct {
	conn *Conn
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(conn *Conn) *DecisionStore {
	return &DecisionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const decisionColumns = `
	decision_id, address, symbol, evaluated_at, composite_score,
	price_score, smart_money_score, volume_score, social_score,
	passed, failure_reason, detail, position_id
`

// Insert adds a decision. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionStore) Insert(ctx context.Context, d *domain.ScoreDecision) error {
	if d == nil || d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM score_decisions WHERE decision_id = ?`,
		d.DecisionID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO score_decisions (`+decisionColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		d.DecisionID, d.Address, d.Symbol, d.EvaluatedAt, d.CompositeScore,
		d.Components.Price, d.Components.SmartMoney, d.Components.Volume, d.Components.Social,
		d.Passed, string(d.FailureReason), d.Detail, d.PositionID,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// List retrieves decisions evaluated within [start, end] (inclusive), ordered by evaluated_at ASC.
func (s *DecisionStore) List(ctx context.Context, start, end int64) ([]*domain.ScoreDecision, error) {
	query := `SELECT ` + decisionColumns + `
		FROM score_decisions
		WHERE evaluated_at >= ? AND evaluated_at <= ?
		ORDER BY evaluated_at ASC, address ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetByAddress retrieves all decisions for a token, ordered by evaluated_at ASC.
func (s *DecisionStore) GetByAddress(ctx context.Context, address string) ([]*domain.ScoreDecision, error) {
	query := `SELECT ` + decisionColumns + `
		FROM score_decisions
		WHERE address = ?
		ORDER BY evaluated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query decisions by address: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

func scanDecisions(rows chRows) ([]*domain.ScoreDecision, error) {
	var result []*domain.ScoreDecision
	for rows.Next() {
		var d domain.ScoreDecision
		var reason string
		err := rows.Scan(
			&d.DecisionID, &d.Address, &d.Symbol, &d.EvaluatedAt, &d.CompositeScore,
			&d.Components.Price, &d.Components.SmartMoney, &d.Components.Volume, &d.Components.Social,
			&d.Passed, &reason, &d.Detail, &d.PositionID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		d.FailureReason = domain.FailureReason(reason)
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}
	return result, nil
}
