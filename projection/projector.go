// Package projection keeps the account balance views in step with the
// event stream.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"transfer-ledger/bus"
	"transfer-ledger/domain"
	"transfer-ledger/events"
	"transfer-ledger/shared"
	"transfer-ledger/store"
)

// Projector applies committed events to the views and serves up-to-date
// views to readers. The event store stays the source of truth: a missing,
// stale or broken view is rebuilt from it.
type Projector struct {
	views  store.SnapshotStore
	events store.EventStore
	logger *slog.Logger
}

func NewProjector(views store.SnapshotStore, es store.EventStore, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{views: views, events: es, logger: logger}
}

// Register subscribes the projector to every account event.
func (p *Projector) Register(eventBus *bus.EventBus) error {
	for _, name := range []shared.MessageName{
		shared.AccountCreatedEventName,
		shared.TransferMadeEventName,
		shared.TransferReceivedEventName,
	} {
		if err := eventBus.Register(name, p); err != nil {
			return fmt.Errorf("failed to register projector for %s: %w", name, err)
		}
	}
	return nil
}

func (p *Projector) Handle(ctx context.Context, msg bus.Message) error {
	event, ok := msg.(events.Event)
	if !ok {
		return fmt.Errorf("projector cannot handle %T", msg)
	}
	accountID := event.GetBase().AggregateID

	view, err := p.load(ctx, accountID)
	if err != nil {
		return err
	}

	applied, err := view.Apply(event)
	if errors.Is(err, domain.ErrVersionGap) {
		p.logger.Warn("view behind event stream, rebuilding",
			"account_id", accountID,
			"view_version", view.Version,
			"event_version", event.GetBase().Version)
		view, err = p.rebuild(ctx, accountID)
		applied = err == nil
	}
	if err != nil {
		return fmt.Errorf("failed to project %s for %s: %w", event.MessageName(), accountID, err)
	}
	if !applied {
		return nil
	}
	return p.views.SaveSnapshot(ctx, view)
}

// View returns the current view of an account, catching up from the event
// store first. It fails with store.ErrNotFound for unknown accounts.
func (p *Projector) View(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	view, err := p.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tail, err := p.events.GetEventsAfterVersion(ctx, accountID, view.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s after version %d: %w", accountID, view.Version, err)
	}

	changed := false
	for _, event := range tail {
		applied, err := view.Apply(event)
		if err != nil {
			p.logger.Error("failed to catch up view, rebuilding", "account_id", accountID, "error", err)
			view, err = p.rebuild(ctx, accountID)
			if err != nil {
				return nil, err
			}
			changed = true
			break
		}
		changed = changed || applied
	}

	if view.Version == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, accountID)
	}
	if changed {
		if err := p.views.SaveSnapshot(ctx, view); err != nil {
			p.logger.Warn("failed to back-fill view", "account_id", accountID, "error", err)
		}
	}
	return view, nil
}

// load returns the stored view or an empty one. A broken view store is
// logged and treated as a miss.
func (p *Projector) load(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	view, found, err := p.views.GetLatestSnapshot(ctx, accountID)
	if err != nil {
		p.logger.Warn("failed to read view, treating as missing", "account_id", accountID, "error", err)
		found = false
	}
	if !found {
		return &domain.Snapshot{AggregateID: accountID}, nil
	}
	return view, nil
}

func (p *Projector) rebuild(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	history, err := p.events.GetEvents(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s: %w", accountID, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, accountID)
	}

	view := &domain.Snapshot{AggregateID: accountID}
	for _, event := range history {
		if _, err := view.Apply(event); err != nil {
			return nil, fmt.Errorf("failed to rebuild view for %s: %w", accountID, err)
		}
	}
	return view, nil
}
