package store_test

import (
	"context"
	"testing"

	"transfer-ledger/domain"
	"transfer-ledger/store"
)

func TestInMemorySnapshotStore_SaveAndGetSnapshot(t *testing.T) {
	ctx := context.Background()
	ss := store.NewInMemorySnapshotStore()
	aggID := "snap-agg-1"

	t.Run("GetNotFound", func(t *testing.T) {
		snap, found, err := ss.GetLatestSnapshot(ctx, aggID)
		if err != nil {
			t.Fatalf("GetLatestSnapshot failed: %v", err)
		}
		if found || snap != nil {
			t.Errorf("Expected snapshot not found, got %v", snap)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		snap := domain.TakeSnapshot(domain.Create(aggID, "Alice", dec("100")))
		if err := ss.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}

		got, found, err := ss.GetLatestSnapshot(ctx, aggID)
		if err != nil || !found {
			t.Fatalf("Expected snapshot to be found, err=%v", err)
		}
		if got.Version != 1 || !got.Balance.Equal(dec("100")) || got.Name != "Alice" {
			t.Errorf("Unexpected snapshot %+v", got)
		}

		got.Version = 99
		snap.Version = 42
		again, _, _ := ss.GetLatestSnapshot(ctx, aggID)
		if again.Version != 1 {
			t.Errorf("GetLatestSnapshot did not return a copy, version is %d", again.Version)
		}
	})

	t.Run("OverwriteSnapshot", func(t *testing.T) {
		acc := domain.Create(aggID, "Alice", dec("100")).ReceiveTransfer("t-1", dec("100"), "q1")
		if err := ss.SaveSnapshot(ctx, domain.TakeSnapshot(acc)); err != nil {
			t.Fatalf("SaveSnapshot (overwrite) failed: %v", err)
		}
		got, _, _ := ss.GetLatestSnapshot(ctx, aggID)
		if got.Version != 2 || !got.Balance.Equal(dec("200")) {
			t.Errorf("Expected v2 balance 200, got v%d %s", got.Version, got.Balance)
		}
	})

	t.Run("SaveNilSnapshot", func(t *testing.T) {
		if err := ss.SaveSnapshot(ctx, nil); err == nil {
			t.Errorf("Expected error when saving nil snapshot, got nil")
		}
	})
}
