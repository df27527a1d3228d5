package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"transfer-ledger/shared"
)

// CommandBus delivers each command to the single handler registered for its
// name. Registering a second handler for a name is an error.
type CommandBus struct {
	mu       sync.RWMutex
	handlers map[shared.MessageName]CommandHandler
	opts     options
}

func NewCommandBus(opts ...Option) *CommandBus {
	return &CommandBus{
		handlers: make(map[shared.MessageName]CommandHandler),
		opts:     buildOptions(opts),
	}
}

func (b *CommandBus) Register(name shared.MessageName, handler CommandHandler) error {
	if !name.Valid() {
		return shared.NewError(shared.KindUnknownMessage, "unknown message name %q", name)
	}
	if !name.IsCommand() {
		return shared.NewError(shared.KindUnknownMessage, "%s is not a command", name)
	}
	if handler == nil {
		return shared.NewError(shared.KindInvalidCommand, "nil handler for %s", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[name]; exists {
		return shared.NewError(shared.KindDuplicateHandler, "handler already registered for %s", name)
	}
	b.handlers[name] = handler
	b.opts.logger.Debug("command handler registered", "message", name)
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (b *CommandBus) MustRegister(name shared.MessageName, handler CommandHandler) {
	if err := b.Register(name, handler); err != nil {
		panic(fmt.Sprintf("command bus: %v", err))
	}
}

func (b *CommandBus) HasHandler(name shared.MessageName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.handlers[name]
	return ok
}

// Verify reports every listed name that has no handler.
func (b *CommandBus) Verify(names ...shared.MessageName) error {
	var missing []error
	for _, name := range names {
		if !b.HasHandler(name) {
			missing = append(missing, shared.NewError(shared.KindNoHandlerRegistered, "no handler registered for %s", name))
		}
	}
	if len(missing) > 0 {
		return &shared.AggregateError{Errors: missing, Timestamp: time.Now().UTC()}
	}
	return nil
}

func (b *CommandBus) Dispatch(ctx context.Context, cmd Command) shared.Result[any] {
	if cmd == nil {
		return shared.Err[any](shared.NewError(shared.KindInvalidCommand, "nil command"))
	}
	name := cmd.MessageName()

	b.mu.RLock()
	handler, ok := b.handlers[name]
	b.mu.RUnlock()
	if !ok {
		err := shared.NewError(shared.KindNoHandlerRegistered, "no handler registered for %s", name)
		b.opts.metrics.ObserveDispatch(name, err, 0)
		return shared.Err[any](err)
	}

	start := time.Now()
	result := handler.Handle(ctx, cmd)
	b.opts.metrics.ObserveDispatch(name, result.Error(), time.Since(start))

	if !result.IsOk() {
		b.opts.logger.Error("command failed",
			"message", name,
			"kind", shared.KindOf(result.Error()),
			"error", result.Error(),
			slog.Any("content", cmd.Content()))
	}
	return result
}

// DispatchAll dispatches every command in order without stopping at the
// first failure. It fails with an *shared.AggregateError listing every
// failed command when any did.
func (b *CommandBus) DispatchAll(ctx context.Context, cmds []Command) shared.Result[[]any] {
	results := make([]shared.Result[any], 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, b.Dispatch(ctx, cmd))
	}
	return shared.Combine(results)
}
