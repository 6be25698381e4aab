package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

func testPosition(id string, entryTime int64) *domain.Position {
	return &domain.Position{
		ID:                 id,
		TokenAddress:       "So11111111111111111111111111111111111111112",
		Symbol:             "REV",
		RevivalScore:       0.62,
		EntryTime:          entryTime,
		EntryPrice:         1.02,
		MarketPriceAtEntry: 1.0,
		StopLossPrice:      0.816,
		TakeProfit1Price:   1.377,
		TakeProfit2Price:   1.785,
		PositionSizeUSD:    1000,
		QuantityUSD:        999.4,
		EntryFeeUSD:        0.6,
		RemainingPct:       100,
		Status:             domain.PositionOpen,
		CurrentPrice:       1.02,
		LastUpdate:         entryTime,
	}
}

// valuesRow is a pgx.Row that scans fixed values, as the driver would after
// decoding a positions row.
type valuesRow struct {
	values []any
	err    error
}

func (r valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, v := range r.values {
		target := reflect.ValueOf(dest[i]).Elem()
		value := reflect.ValueOf(v)
		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan column %d: cannot assign %s to %s", i, value.Type(), target.Type())
		}
		target.Set(value)
	}
	return nil
}

var _ pgx.Row = valuesRow{}

func TestPositionRow_RoundTrip(t *testing.T) {
	p := testPosition("pos-row", 1_700_000_000_000)
	p.Status = domain.PositionClosed
	p.RemainingPct = 0
	p.CurrentPrice = 1.5
	p.CurrentPnLPct = 47.06
	p.LastUpdate = 1_700_000_600_000
	p.ClosedAt = 1_700_000_600_000
	p.ExitCount = 2

	args := positionArgs(p)
	columns := strings.Split(positionColumns, ",")
	require.Len(t, args, len(columns), "one value per column")

	got, err := scanPosition(valuesRow{values: args})
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPositionRow_NoRows(t *testing.T) {
	_, err := scanPosition(valuesRow{err: pgx.ErrNoRows})
	require.Error(t, err)
	assert.True(t, isNotFoundError(err))
}

func TestPositionStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	p := testPosition("pos-1", 1000)
	require.NoError(t, store.Upsert(ctx, p))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	// Partial exit updates the mutable columns.
	p.RemainingPct = 60
	p.CurrentPrice = 1.4
	p.CurrentPnLPct = 37.25
	p.ExitCount = 1
	require.NoError(t, store.Upsert(ctx, p))

	got, err = store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.RemainingPct)
	assert.Equal(t, 1, got.ExitCount)
	assert.Equal(t, domain.PositionOpen, got.Status)
}

func TestPositionStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_ListOpenAndDeleteAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	closed := testPosition("pos-closed", 500)
	closed.Status = domain.PositionClosed
	closed.RemainingPct = 0
	closed.ClosedAt = 900

	require.NoError(t, store.Upsert(ctx, testPosition("pos-b", 2000)))
	require.NoError(t, store.Upsert(ctx, testPosition("pos-a", 1000)))
	require.NoError(t, store.Upsert(ctx, closed))

	open, err := store.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "pos-a", open[0].ID)
	assert.Equal(t, "pos-b", open[1].ID)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "pos-closed", all[0].ID)

	require.NoError(t, store.DeleteAll(ctx))
	all, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
