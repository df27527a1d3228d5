// Package notification delivers user notifications through a FIFO queue.
// Delivery is best-effort: failures are reported to the caller but never
// block later items.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"transfer-ledger/metrics"
	"transfer-ledger/shared"
)

const DefaultMaxAttempts = 3

// Store is the delivery sink for a single notification.
type Store interface {
	Save(ctx context.Context, userID, message string) error
}

type Item struct {
	UserID     string
	Message    string
	Attempts   int
	EnqueuedAt time.Time
}

type Option func(*Service)

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

type Service struct {
	mu    sync.Mutex
	queue []Item

	store       Store
	maxAttempts int
	logger      *slog.Logger
	metrics     *metrics.Collector
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify enqueues a message for userID and drains the queue.
func (s *Service) Notify(ctx context.Context, userID, message string) error {
	s.mu.Lock()
	s.queue = append(s.queue, Item{UserID: userID, Message: message, EnqueuedAt: time.Now().UTC()})
	s.metrics.SetNotificationQueue(len(s.queue))
	s.mu.Unlock()

	return s.ProcessQueue(ctx)
}

// ProcessQueue delivers queued items in FIFO order until the queue is empty.
// Each item is removed under the lock before it is delivered, so concurrent
// drains never deliver the same item twice. Items that fail are put back at
// the tail once the pass ends, until they reach the attempt limit.
func (s *Service) ProcessQueue(ctx context.Context) error {
	var failed []Item
	var failures []error

	for {
		item, ok := s.pop()
		if !ok {
			break
		}

		item.Attempts++
		if err := s.deliver(ctx, item); err != nil {
			s.logger.Error("notification delivery failed",
				"user_id", item.UserID,
				"attempt", item.Attempts,
				"error", err)
			failed = append(failed, item)
			failures = append(failures, err)
			continue
		}
		s.metrics.ObserveNotification(metrics.NotificationDelivered)
	}

	if len(failures) == 0 {
		return nil
	}

	s.requeue(failed)
	return shared.WrapError(shared.KindNotificationDeliveryFailure, errors.Join(failures...),
		"%d notification(s) could not be delivered", len(failures))
}

// deliver hands one item to the store. A panicking store counts as a
// failed delivery.
func (s *Service) deliver(ctx context.Context, item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification store panicked: %v", r)
		}
	}()
	return s.store.Save(ctx, item.UserID, item.Message)
}

// Pending returns the number of queued items.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Service) pop() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Item{}, false
	}
	item := s.queue[0]
	s.queue[0] = Item{}
	s.queue = s.queue[1:]
	s.metrics.SetNotificationQueue(len(s.queue))
	return item, true
}

func (s *Service) requeue(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.Attempts >= s.maxAttempts {
			s.logger.Error("notification dropped after max attempts",
				"user_id", item.UserID,
				"attempts", item.Attempts,
				"enqueued_at", item.EnqueuedAt)
			s.metrics.ObserveNotification(metrics.NotificationDropped)
			continue
		}
		s.queue = append(s.queue, item)
		s.metrics.ObserveNotification(metrics.NotificationRetried)
	}
	s.metrics.SetNotificationQueue(len(s.queue))
}
