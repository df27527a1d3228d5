package domain_test

import (
	"errors"
	"testing"

	"transfer-ledger/domain"
)

func TestSnapshot_Apply(t *testing.T) {
	acc := domain.Create("acc-1", "Alice", dec("100"))
	snap := domain.TakeSnapshot(acc)

	next := acc.ReceiveTransfer("tr-1", dec("50"), "bob")
	after, err := next.Transfer("tr-2", dec("30"), "bob")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	history := after.EventHistory()

	t.Run("AdvancesInOrder", func(t *testing.T) {
		for _, e := range history[1:] {
			applied, err := snap.Apply(e)
			if err != nil || !applied {
				t.Fatalf("Apply v%d failed: applied=%v err=%v", e.GetBase().Version, applied, err)
			}
		}
		if !snap.Balance.Equal(dec("120")) || snap.Version != 3 {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("IgnoresReplayedEvents", func(t *testing.T) {
		applied, err := snap.Apply(history[1])
		if err != nil || applied {
			t.Errorf("expected stale event to be skipped, applied=%v err=%v", applied, err)
		}
		if !snap.Balance.Equal(dec("120")) {
			t.Errorf("balance changed on stale apply: %s", snap.Balance)
		}
	})

	t.Run("ReportsGaps", func(t *testing.T) {
		fresh := domain.TakeSnapshot(acc)
		if _, err := fresh.Apply(history[2]); !errors.Is(err, domain.ErrVersionGap) {
			t.Errorf("expected ErrVersionGap, got %v", err)
		}
	})
}
