package app

import (
	"context"
	"log/slog"

	"transfer-ledger/bus"
	"transfer-ledger/metrics"
)

// EventPublisher receives the events of a committed command.
type EventPublisher interface {
	DispatchAll(ctx context.Context, evts []bus.Message) error
}

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, userID, message string) error { return nil }

type Option func(*handlerOptions)

type handlerOptions struct {
	logger    *slog.Logger
	metrics   *metrics.Collector
	publisher EventPublisher
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *handlerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *handlerOptions) {
		o.metrics = collector
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *handlerOptions) {
		o.publisher = p
	}
}

func buildOptions(opts []Option) handlerOptions {
	o := handlerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
