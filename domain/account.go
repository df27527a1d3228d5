package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"transfer-ledger/events"
	"transfer-ledger/shared"
)

// Account is the aggregate root for one balance. It is an immutable value with
// history: every operation returns a new Account carrying the previous events
// plus the new one, and the receiver is left untouched.
type Account struct {
	id      string
	name    string
	balance decimal.Decimal
	history []events.Event

	// persisted counts the leading history events already in the event store.
	persisted int
}

// Create opens an account. The initial balance is not validated: negative
// seeds are accepted and left to the caller's policy.
func Create(id, name string, initialBalance decimal.Decimal) *Account {
	event := events.AccountCreatedEvent{
		BaseEvent:      events.NewBaseEvent(id, 1, shared.AccountCreatedEventName),
		Name:           name,
		InitialBalance: initialBalance,
	}
	return &Account{
		id:      id,
		name:    name,
		balance: initialBalance,
		history: []events.Event{event},
	}
}

func (a *Account) ID() string               { return a.id }
func (a *Account) Name() string             { return a.name }
func (a *Account) Balance() decimal.Decimal { return a.balance }

// Version is the number of events in the history.
func (a *Account) Version() int { return len(a.history) }

// PersistedVersion is the version the event store held when this instance
// (or the instance it was derived from) was loaded.
func (a *Account) PersistedVersion() int { return a.persisted }

// EventHistory returns the ordered log. The slice is a copy.
func (a *Account) EventHistory() []events.Event {
	history := make([]events.Event, len(a.history))
	copy(history, a.history)
	return history
}

// UncommittedEvents returns the events appended since the account was loaded.
func (a *Account) UncommittedEvents() []events.Event {
	pending := make([]events.Event, len(a.history)-a.persisted)
	copy(pending, a.history[a.persisted:])
	return pending
}

// Transfer debits amount towards toAccountID. It fails with
// shared.ErrInsufficientBalance when amount exceeds the balance.
func (a *Account) Transfer(transferID string, amount decimal.Decimal, toAccountID string) (*Account, error) {
	if amount.GreaterThan(a.balance) {
		return nil, shared.NewError(shared.KindInsufficientBalance,
			"insufficient balance on account %s: requested %s, available %s", a.id, amount.String(), a.balance.String())
	}

	event := events.TransferMadeEvent{
		BaseEvent:   events.NewBaseEvent(a.id, a.Version()+1, shared.TransferMadeEventName),
		TransferID:  transferID,
		Amount:      amount,
		ToAccountID: toAccountID,
	}
	return a.append(a.balance.Sub(amount), event), nil
}

func (a *Account) ReceiveTransfer(transferID string, amount decimal.Decimal, fromAccountID string) *Account {
	event := events.TransferReceivedEvent{
		BaseEvent:     events.NewBaseEvent(a.id, a.Version()+1, shared.TransferReceivedEventName),
		TransferID:    transferID,
		Amount:        amount,
		FromAccountID: fromAccountID,
	}
	return a.append(a.balance.Add(amount), event)
}

func (a *Account) append(balance decimal.Decimal, event events.Event) *Account {
	history := make([]events.Event, len(a.history), len(a.history)+1)
	copy(history, a.history)
	history = append(history, event)

	return &Account{
		id:        a.id,
		name:      a.name,
		balance:   balance,
		history:   history,
		persisted: a.persisted,
	}
}

// Replay rebuilds an account by folding its full history. The result is
// considered persisted up to its last event.
func Replay(history []events.Event) (*Account, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrInvalidHistory)
	}
	created, ok := history[0].(events.AccountCreatedEvent)
	if !ok {
		return nil, fmt.Errorf("%w: first event is %T, expected AccountCreatedEvent", ErrInvalidHistory, history[0])
	}

	account := &Account{id: created.AggregateID, name: created.Name}
	for i, event := range history {
		base := event.GetBase()
		if base.Version != i+1 {
			return nil, fmt.Errorf("%w: account %s expected version %d, got %d for event %T (%s)",
				ErrInvalidHistory, account.id, i+1, base.Version, event, base.EventID)
		}
		if base.AggregateID != account.id {
			return nil, fmt.Errorf("%w: event %s belongs to %s, not %s", ErrInvalidHistory, base.EventID, base.AggregateID, account.id)
		}
		if _, again := event.(events.AccountCreatedEvent); again && i > 0 {
			return nil, fmt.Errorf("%w: account %s created twice (v%d)", ErrInvalidHistory, account.id, base.Version)
		}

		balance, err := applyBalance(account.balance, event)
		if err != nil {
			return nil, fmt.Errorf("%w: account %s: %v", ErrInvalidHistory, account.id, err)
		}
		account.balance = balance
	}

	account.history = make([]events.Event, len(history))
	copy(account.history, history)
	account.persisted = len(history)
	return account, nil
}

func applyBalance(balance decimal.Decimal, event events.Event) (decimal.Decimal, error) {
	switch e := event.(type) {
	case events.AccountCreatedEvent:
		return e.InitialBalance, nil
	case events.TransferMadeEvent:
		return balance.Sub(e.Amount), nil
	case events.TransferReceivedEvent:
		return balance.Add(e.Amount), nil
	default:
		return balance, fmt.Errorf("unknown event type %T", event)
	}
}
