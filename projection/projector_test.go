package projection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/projection"
	"transfer-ledger/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	events   *store.InMemoryEventStore
	views    *store.InMemorySnapshotStore
	accounts *store.EventSourcedAccountStore
	proj     *projection.Projector
}

func newFixture() fixture {
	es := store.NewInMemoryEventStore()
	views := store.NewInMemorySnapshotStore()
	return fixture{
		events:   es,
		views:    views,
		accounts: store.NewEventSourcedAccountStore(es),
		proj:     projection.NewProjector(views, es, nil),
	}
}

// commit saves the account and returns its newly committed events.
func (f fixture) commit(t *testing.T, acc *domain.Account) []events.Event {
	t.Helper()
	pending := acc.UncommittedEvents()
	err := f.accounts.RunInTransaction(context.Background(), func(save store.SaveFunc) error {
		return save(acc)
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	return pending
}

func TestProjector_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("FollowsEvents", func(t *testing.T) {
		f := newFixture()
		acc := domain.Create("p1", "Payer", dec("1000"))
		created := f.commit(t, acc)
		loaded, _ := f.accounts.FindOne(ctx, "p1")
		debited, _ := loaded.Transfer("t-1", dec("100"), "q1")
		made := f.commit(t, debited)

		for _, e := range append(created, made...) {
			if err := f.proj.Handle(ctx, e); err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
		}

		view, found, _ := f.views.GetLatestSnapshot(ctx, "p1")
		if !found {
			t.Fatalf("Expected a view for p1")
		}
		if view.Version != 2 || !view.Balance.Equal(dec("900")) || view.Name != "Payer" {
			t.Errorf("Unexpected view %+v", view)
		}
	})

	t.Run("DuplicateEventIgnored", func(t *testing.T) {
		f := newFixture()
		created := f.commit(t, domain.Create("p1", "Payer", dec("10")))
		_ = f.proj.Handle(ctx, created[0])
		if err := f.proj.Handle(ctx, created[0]); err != nil {
			t.Fatalf("Handle of a replayed event failed: %v", err)
		}
		view, _, _ := f.views.GetLatestSnapshot(ctx, "p1")
		if view.Version != 1 || !view.Balance.Equal(dec("10")) {
			t.Errorf("Unexpected view %+v", view)
		}
	})

	t.Run("GapRebuildsFromStore", func(t *testing.T) {
		f := newFixture()
		f.commit(t, domain.Create("p1", "Payer", dec("1000")))
		loaded, _ := f.accounts.FindOne(ctx, "p1")
		debited, _ := loaded.Transfer("t-1", dec("100"), "q1")
		made := f.commit(t, debited)

		if err := f.proj.Handle(ctx, made[0]); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		view, _, _ := f.views.GetLatestSnapshot(ctx, "p1")
		if view.Version != 2 || !view.Balance.Equal(dec("900")) {
			t.Errorf("Expected rebuilt view v2/900, got v%d/%s", view.Version, view.Balance)
		}
	})

	t.Run("RegisteredOnEventBus", func(t *testing.T) {
		f := newFixture()
		eventBus := bus.NewEventBus()
		if err := f.proj.Register(eventBus); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		created := f.commit(t, domain.Create("q1", "Payee", dec("500")))
		if err := eventBus.Dispatch(ctx, created[0]); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if _, found, _ := f.views.GetLatestSnapshot(ctx, "q1"); !found {
			t.Errorf("Expected view after dispatch")
		}
	})
}

func TestProjector_View(t *testing.T) {
	ctx := context.Background()

	t.Run("CatchesUpWithoutEvents", func(t *testing.T) {
		f := newFixture()
		f.commit(t, domain.Create("p1", "Payer", dec("1000")))
		loaded, _ := f.accounts.FindOne(ctx, "p1")
		received := loaded.ReceiveTransfer("t-1", dec("5"), "q1")
		f.commit(t, received)

		view, err := f.proj.View(ctx, "p1")
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
		if view.Version != 2 || !view.Balance.Equal(dec("1005")) {
			t.Errorf("Unexpected view %+v", view)
		}
		if _, found, _ := f.views.GetLatestSnapshot(ctx, "p1"); !found {
			t.Errorf("Expected view to be back-filled")
		}
	})

	t.Run("StaleViewCaughtUp", func(t *testing.T) {
		f := newFixture()
		acc := domain.Create("p1", "Payer", dec("1000"))
		f.commit(t, acc)
		_ = f.views.SaveSnapshot(ctx, domain.TakeSnapshot(acc))

		loaded, _ := f.accounts.FindOne(ctx, "p1")
		debited, _ := loaded.Transfer("t-1", dec("1"), "q1")
		f.commit(t, debited)

		view, err := f.proj.View(ctx, "p1")
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
		if !view.Balance.Equal(dec("999")) {
			t.Errorf("Expected 999, got %s", view.Balance)
		}
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		f := newFixture()
		if _, err := f.proj.View(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
