package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"transfer-ledger/events"
)

// Snapshot is the read-model view of an account: its state at Version,
// without the history.
type Snapshot struct {
	AggregateID string          `json:"aggregateId"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Version     int             `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
}

func TakeSnapshot(account *Account) *Snapshot {
	return &Snapshot{
		AggregateID: account.ID(),
		Name:        account.Name(),
		Balance:     account.Balance(),
		Version:     account.Version(),
		Timestamp:   time.Now().UTC(),
	}
}

// Apply advances the snapshot by one event. Events at or below the current
// version are ignored; a gap returns ErrVersionGap so the caller can rebuild.
func (s *Snapshot) Apply(event events.Event) (applied bool, err error) {
	base := event.GetBase()
	if base.AggregateID != s.AggregateID {
		return false, fmt.Errorf("snapshot for %s cannot apply event of %s", s.AggregateID, base.AggregateID)
	}
	if base.Version <= s.Version {
		return false, nil
	}
	if base.Version != s.Version+1 {
		return false, fmt.Errorf("%w: snapshot %s at v%d, event v%d", ErrVersionGap, s.AggregateID, s.Version, base.Version)
	}

	balance, err := applyBalance(s.Balance, event)
	if err != nil {
		return false, err
	}
	if created, ok := event.(events.AccountCreatedEvent); ok {
		s.Name = created.Name
	}
	s.Balance = balance
	s.Version = base.Version
	s.Timestamp = base.Timestamp
	return true, nil
}
