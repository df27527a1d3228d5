package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"transfer-ledger/shared"
)

// EventBus calls every handler registered for an event's name, in
// registration order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[shared.MessageName][]EventHandler
	opts     options
}

func NewEventBus(opts ...Option) *EventBus {
	return &EventBus{
		handlers: make(map[shared.MessageName][]EventHandler),
		opts:     buildOptions(opts),
	}
}

func (b *EventBus) Register(name shared.MessageName, handler EventHandler) error {
	if !name.Valid() {
		return shared.NewError(shared.KindUnknownMessage, "unknown message name %q", name)
	}
	if !name.IsEvent() {
		return shared.NewError(shared.KindUnknownMessage, "%s is not an event", name)
	}
	if handler == nil {
		return shared.NewError(shared.KindInvalidCommand, "nil handler for %s", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
	return nil
}

func (b *EventBus) MustRegister(name shared.MessageName, handler EventHandler) {
	if err := b.Register(name, handler); err != nil {
		panic(fmt.Sprintf("event bus: %v", err))
	}
}

// Dispatch stops at the first handler error and returns it. An event with no
// handlers is dropped silently.
func (b *EventBus) Dispatch(ctx context.Context, event Message) error {
	if event == nil {
		return shared.NewError(shared.KindInvalidCommand, "nil event")
	}
	name := event.MessageName()

	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers[name]))
	copy(handlers, b.handlers[name])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	start := time.Now()
	for i, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.opts.metrics.ObserveDispatch(name, err, time.Since(start))
			b.opts.logger.Error("event handler failed",
				"message", name,
				"handler", i,
				"error", err)
			return err
		}
	}
	b.opts.metrics.ObserveDispatch(name, nil, time.Since(start))
	return nil
}

// DispatchAll dispatches events in input order and stops at the first error.
func (b *EventBus) DispatchAll(ctx context.Context, evts []Message) error {
	for _, event := range evts {
		if err := b.Dispatch(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
