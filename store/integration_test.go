package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"transfer-ledger/domain"
	"transfer-ledger/store"
)

func TestPostgresEventStore(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := store.ConnectPostgres(ctx, url)
	if err != nil {
		t.Fatalf("ConnectPostgres failed: %v", err)
	}
	defer pool.Close()

	es := store.NewPostgresEventStore(pool)
	if err := es.ApplySchema(ctx); err != nil {
		t.Fatalf("ApplySchema failed: %v", err)
	}
	accounts := store.NewEventSourcedAccountStore(es)

	payerID := "p-" + uuid.NewString()
	payeeID := "q-" + uuid.NewString()
	seedAccounts(t, accounts, domain.Create(payerID, "Payer", dec("1000")), domain.Create(payeeID, "Payee", dec("500")))

	payer, err := accounts.FindOne(ctx, payerID)
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	stale, _ := accounts.FindOne(ctx, payerID)
	payee, _ := accounts.FindOne(ctx, payeeID)

	debited, _ := payer.Transfer("t-1", dec("100"), payeeID)
	credited := payee.ReceiveTransfer("t-1", dec("100"), payerID)
	err = accounts.RunInTransaction(ctx, func(save store.SaveFunc) error {
		if err := save(debited); err != nil {
			return err
		}
		return save(credited)
	})
	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}

	payer, _ = accounts.FindOne(ctx, payerID)
	payee, _ = accounts.FindOne(ctx, payeeID)
	if !payer.Balance().Equal(dec("900")) || !payee.Balance().Equal(dec("600")) {
		t.Errorf("Expected 900/600, got %s/%s", payer.Balance(), payee.Balance())
	}

	staleDebit, _ := stale.Transfer("t-2", dec("50"), payeeID)
	err = accounts.RunInTransaction(ctx, func(save store.SaveFunc) error { return save(staleDebit) })
	if !errors.Is(err, store.ErrOptimisticLock) {
		t.Errorf("Expected ErrOptimisticLock, got %v", err)
	}

	tail, err := es.GetEventsAfterVersion(ctx, payerID, 1)
	if err != nil {
		t.Fatalf("GetEventsAfterVersion failed: %v", err)
	}
	if len(tail) != 1 || tail[0].GetBase().Version != 2 {
		t.Errorf("Expected one event at v2, got %d events", len(tail))
	}
}

func TestPostgresCustomerStore(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := store.ConnectPostgres(ctx, url)
	if err != nil {
		t.Fatalf("ConnectPostgres failed: %v", err)
	}
	defer pool.Close()

	cs := store.NewPostgresCustomerStore(pool)
	if err := cs.ApplySchema(ctx); err != nil {
		t.Fatalf("ApplySchema failed: %v", err)
	}

	email := uuid.NewString() + "@example.com"
	c := newCustomer(t, email)
	if err := cs.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := cs.Save(ctx, newCustomer(t, email)); !errors.Is(err, store.ErrCustomerExists) {
		t.Errorf("Expected ErrCustomerExists, got %v", err)
	}

	got, err := cs.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if got.ID != c.ID || got.Role != domain.RoleCustomer || !got.CheckPassword("secret123") {
		t.Errorf("Unexpected customer %+v", got)
	}
	if _, err := cs.FindOne(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRedisSnapshotStore(t *testing.T) {
	addr := os.Getenv("LEDGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEDGER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := store.NewRedisClient(addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient failed: %v", err)
	}
	defer client.Close()

	ss := store.NewRedisSnapshotStore(client, time.Minute)
	id := "view-" + uuid.NewString()

	if _, found, err := ss.GetLatestSnapshot(ctx, id); err != nil || found {
		t.Fatalf("Expected miss, found=%v err=%v", found, err)
	}

	if err := ss.SaveSnapshot(ctx, domain.TakeSnapshot(domain.Create(id, "Alice", dec("12.50")))); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	got, found, err := ss.GetLatestSnapshot(ctx, id)
	if err != nil || !found {
		t.Fatalf("Expected hit, found=%v err=%v", found, err)
	}
	if !got.Balance.Equal(dec("12.50")) || got.Version != 1 {
		t.Errorf("Unexpected view %+v", got)
	}
}
