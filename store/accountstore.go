package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"transfer-ledger/domain"
)

// SaveFunc persists one aggregate inside a RunInTransaction scope.
type SaveFunc func(account *domain.Account) error

type AccountStore interface {
	// FindOne returns the current aggregate or an error wrapping ErrNotFound.
	FindOne(ctx context.Context, accountID string) (*domain.Account, error)

	// RunInTransaction calls fn with a save capability. Everything saved
	// inside fn is persisted together when fn returns nil, and nothing is
	// persisted otherwise.
	RunInTransaction(ctx context.Context, fn func(save SaveFunc) error) error
}

// EventSourcedAccountStore stores accounts as event streams. A transaction
// buffers the saved aggregates and commits their new events as one batch,
// guarded by each stream's expected version.
type EventSourcedAccountStore struct {
	events EventStore
}

func NewEventSourcedAccountStore(es EventStore) *EventSourcedAccountStore {
	return &EventSourcedAccountStore{events: es}
}

func (s *EventSourcedAccountStore) FindOne(ctx context.Context, accountID string) (*domain.Account, error) {
	history, err := s.events.GetEvents(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for account %s: %w", accountID, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, accountID)
	}

	account, err := domain.Replay(history)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild account %s: %w", accountID, err)
	}
	return account, nil
}

func (s *EventSourcedAccountStore) RunInTransaction(ctx context.Context, fn func(save SaveFunc) error) error {
	tx := &pendingTx{accounts: make(map[string]*domain.Account)}

	if err := fn(tx.save); err != nil {
		tx.close()
		return err
	}

	batch := tx.close()
	if len(batch) == 0 {
		return nil
	}
	if err := s.events.SaveBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pendingTx struct {
	mu       sync.Mutex
	closed   bool
	order    []string
	accounts map[string]*domain.Account
}

// save records the aggregate; for a repeated id the last saved instance wins.
func (t *pendingTx) save(account *domain.Account) error {
	if account == nil {
		return errors.New("cannot save nil account")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("save called after transaction finished")
	}
	if _, ok := t.accounts[account.ID()]; !ok {
		t.order = append(t.order, account.ID())
	}
	t.accounts[account.ID()] = account
	return nil
}

func (t *pendingTx) close() []StreamAppend {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true

	batch := make([]StreamAppend, 0, len(t.order))
	for _, id := range t.order {
		account := t.accounts[id]
		pending := account.UncommittedEvents()
		if len(pending) == 0 {
			continue
		}
		batch = append(batch, StreamAppend{
			AggregateID:     id,
			ExpectedVersion: account.PersistedVersion(),
			Events:          pending,
		})
	}
	return batch
}
