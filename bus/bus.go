// Package bus routes commands to exactly one handler and fans events out to
// every handler registered for their name.
package bus

import (
	"context"
	"log/slog"
	"time"

	"transfer-ledger/metrics"
	"transfer-ledger/shared"
)

// Message is anything the buses can route.
type Message interface {
	MessageName() shared.MessageName
	IssuedAt() time.Time
}

// Command is a request for a state change, with its payload exposed for
// logging and transport.
type Command interface {
	Message
	Content() map[string]any
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) shared.Result[any]
}

type CommandHandlerFunc func(ctx context.Context, cmd Command) shared.Result[any]

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) shared.Result[any] {
	return f(ctx, cmd)
}

type EventHandler interface {
	Handle(ctx context.Context, event Message) error
}

type EventHandlerFunc func(ctx context.Context, event Message) error

func (f EventHandlerFunc) Handle(ctx context.Context, event Message) error {
	return f(ctx, event)
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = collector
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DispatchAs narrows the untyped result of a command dispatch. A value of
// the wrong type is reported as an Internal failure.
func DispatchAs[T any](result shared.Result[any]) shared.Result[T] {
	if !result.IsOk() {
		return shared.Err[T](result.Error())
	}
	value, ok := result.Value().(T)
	if !ok {
		var zero T
		return shared.Err[T](shared.NewError(shared.KindInternal,
			"handler returned %T, expected %T", result.Value(), zero))
	}
	return shared.Ok(value)
}
