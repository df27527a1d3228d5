package app

import (
	"context"
	"errors"

	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/projection"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

// AccountQueries is the read side: balances come from the projected views,
// history from the event store.
type AccountQueries struct {
	events    store.EventStore
	projector *projection.Projector
}

func NewAccountQueries(es store.EventStore, projector *projection.Projector) *AccountQueries {
	return &AccountQueries{events: es, projector: projector}
}

func (q *AccountQueries) GetBalance(ctx context.Context, query GetBalanceQuery) (*domain.Snapshot, error) {
	view, err := q.projector.View(ctx, query.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, shared.WrapError(shared.KindAccountNotFound, err, "account %s not found", query.AccountID)
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to load balance of account %s", query.AccountID)
	}
	return view, nil
}

// GetHistory pages through the account's events. A Limit of 0 or less
// returns everything after Skip.
func (q *AccountQueries) GetHistory(ctx context.Context, query GetHistoryQuery) ([]events.Event, error) {
	history, err := q.events.GetEvents(ctx, query.AccountID)
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, err, "failed to get event history for account %s", query.AccountID)
	}
	if len(history) == 0 {
		return nil, shared.NewError(shared.KindAccountNotFound, "account %s not found", query.AccountID)
	}

	totalEvents := len(history)
	start := query.Skip
	if start < 0 {
		start = 0
	}
	if start >= totalEvents {
		return []events.Event{}, nil
	}

	end := start + query.Limit
	if query.Limit <= 0 || end > totalEvents {
		end = totalEvents
	}
	return history[start:end], nil
}
