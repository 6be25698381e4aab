package memory

import (
	"context"
	"errors"
	"testing"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/storage"
)

func TestPositionStore_UpsertAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	pos := &domain.Position{
		ID:           "pos1",
		TokenAddress: "mint1",
		EntryTime:    1000,
		EntryPrice:   1.02,
		RemainingPct: 100,
		Status:       domain.PositionOpen,
	}

	if err := store.Upsert(ctx, pos); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	pos.RemainingPct = 10

	got, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.RemainingPct != 100 {
		t.Errorf("RemainingPct mismatch: got %f, want 100", got.RemainingPct)
	}

	pos.Status = domain.PositionClosed
	pos.RemainingPct = 0
	if err := store.Upsert(ctx, pos); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, _ = store.GetByID(ctx, "pos1")
	if got.Status != domain.PositionClosed {
		t.Errorf("expected closed after upsert, got %s", got.Status)
	}
}

func TestPositionStore_NotFound(t *testing.T) {
	store := NewPositionStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_InvalidInput(t *testing.T) {
	store := NewPositionStore()

	if err := store.Upsert(context.Background(), &domain.Position{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPositionStore_ListOpenOrdered(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []*domain.Position{
		{ID: "c", EntryTime: 3000, Status: domain.PositionOpen},
		{ID: "a", EntryTime: 1000, Status: domain.PositionOpen},
		{ID: "b", EntryTime: 2000, Status: domain.PositionClosed},
	}
	for _, p := range positions {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	open, err := store.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen failed: %v", err)
	}
	if len(open) != 2 || open[0].ID != "a" || open[1].ID != "c" {
		t.Errorf("unexpected open positions: %+v", open)
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 3 {
		t.Errorf("expected 3 positions, got %d", len(all))
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	all, _ = store.ListAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected empty store after DeleteAll, got %d", len(all))
	}
}
