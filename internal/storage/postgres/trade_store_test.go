package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

func testTrade(id, positionID string, exitTime int64, exitType domain.ExitType) *domain.Trade {
	return &domain.Trade{
		TradeID:      id,
		PositionID:   positionID,
		TokenAddress: "So11111111111111111111111111111111111111112",
		Symbol:       "REV",
		EntryPrice:   1.02,
		EntryTime:    1000,
		ExitPrice:    1.3965,
		ExitTime:     exitTime,
		ExitType:     exitType,
		QuantityUSD:  399.76,
		SellPct:      40,
		PnLUSD:       146.7,
		PnLPct:       36.9,
		FeesPaid:     0.33,
		HoldDays:     0.5,
	}
}

func TestTradeStore_InsertAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)
	ctx := context.Background()

	tp1 := testTrade("t-1", "pos-1", 5000, domain.ExitTakeProfit1)
	tp2 := testTrade("t-2", "pos-1", 9000, domain.ExitTakeProfit2)
	other := testTrade("t-3", "pos-2", 7000, domain.ExitStopLoss)

	require.NoError(t, store.Insert(ctx, tp2))
	require.NoError(t, store.Insert(ctx, tp1))
	require.NoError(t, store.Insert(ctx, other))

	got, err := store.GetByPositionID(ctx, "pos-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, tp1, got[0])
	assert.Equal(t, domain.ExitTakeProfit2, got[1].ExitType)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t-1", all[0].TradeID)
	assert.Equal(t, "t-3", all[1].TradeID)
	assert.Equal(t, "t-2", all[2].TradeID)
}

func TestTradeStore_Insert_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(pool)
	ctx := context.Background()

	tr := testTrade("t-dup", "pos-1", 5000, domain.ExitManual)
	require.NoError(t, store.Insert(ctx, tr))

	err := store.Insert(ctx, tr)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestAccountStore_SaveLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountStore(pool)
	ctx := context.Background()

	_, err := store.Load(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	require.NoError(t, store.Save(ctx, &domain.Account{InitialBalanceUSD: 10000, CashBalanceUSD: 10000, UpdatedAt: 1}))
	require.NoError(t, store.Save(ctx, &domain.Account{InitialBalanceUSD: 10000, CashBalanceUSD: 9000, UpdatedAt: 2}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, got.CashBalanceUSD)
	assert.Equal(t, int64(2), got.UpdatedAt)
}

func TestPool_InTxRollsBackOnError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")

	err := pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO paper_account (id, initial_balance_usd, cash_balance_usd, updated_at) VALUES (1, 10000, 10000, 1)`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewAccountStore(pool).Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
