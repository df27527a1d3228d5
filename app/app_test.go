package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"transfer-ledger/app"
	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/notification"
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

// spyAccountStore counts transactions and can fail lookups or commits.
type spyAccountStore struct {
	store.AccountStore

	mu           sync.Mutex
	transactions int
	findErr      error
	commitErr    error
}

func (s *spyAccountStore) FindOne(ctx context.Context, id string) (*domain.Account, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.AccountStore.FindOne(ctx, id)
}

func (s *spyAccountStore) RunInTransaction(ctx context.Context, fn func(save store.SaveFunc) error) error {
	s.mu.Lock()
	s.transactions++
	s.mu.Unlock()
	if s.commitErr != nil {
		if err := fn(func(*domain.Account) error { return nil }); err != nil {
			return err
		}
		return s.commitErr
	}
	return s.AccountStore.RunInTransaction(ctx, fn)
}

func (s *spyAccountStore) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions
}

// failingSink rejects every delivery.
type failingSink struct{}

func (failingSink) Save(ctx context.Context, userID, message string) error {
	return errors.New("notification store down")
}

// explodingSink panics on every delivery.
type explodingSink struct{}

func (explodingSink) Save(ctx context.Context, userID, message string) error {
	panic("sink exploded")
}

// countingAuthorizer records how often it was asked.
type countingAuthorizer struct {
	decision bool
	err      error
	calls    int
}

func (a *countingAuthorizer) Authorize(ctx context.Context) (bool, error) {
	a.calls++
	return a.decision, a.err
}

type env struct {
	events    *store.InMemoryEventStore
	accounts  *spyAccountStore
	sink      *notification.MemoryStore
	notifier  *notification.Service
	eventBus  *bus.EventBus
	commands  *bus.CommandBus
	queries   *app.AccountQueries
	authorize *countingAuthorizer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	es := store.NewInMemoryEventStore()
	e := &env{
		events:    es,
		accounts:  &spyAccountStore{AccountStore: store.NewEventSourcedAccountStore(es)},
		sink:      notification.NewMemoryStore(),
		eventBus:  bus.NewEventBus(),
		commands:  bus.NewCommandBus(),
		authorize: &countingAuthorizer{decision: true},
	}
	e.notifier = notification.NewService(e.sink)

	projector := projection.NewProjector(store.NewInMemorySnapshotStore(), es, nil)
	if err := projector.Register(e.eventBus); err != nil {
		t.Fatalf("projector Register failed: %v", err)
	}
	e.queries = app.NewAccountQueries(es, projector)
	return e
}

func (e *env) transferHandler(notifier app.Notifier) *app.TransferHandler {
	if notifier == nil {
		notifier = e.notifier
	}
	return app.NewTransferHandler(e.accounts, e.authorize, notifier, app.WithEventPublisher(e.eventBus))
}

func (e *env) open(t *testing.T, id string, balance string) {
	t.Helper()
	h := app.NewOpenAccountHandler(e.accounts, app.WithEventPublisher(e.eventBus))
	if _, err := h.Open(context.Background(), app.NewOpenAccountCommand(id, id, dec(balance))); err != nil {
		t.Fatalf("failed to open %s: %v", id, err)
	}
}

func (e *env) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	acc, err := e.accounts.FindOne(context.Background(), id)
	if err != nil {
		t.Fatalf("FindOne %s failed: %v", id, err)
	}
	return acc.Balance()
}
