package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"transfer-ledger/events"
)

var (
	ErrOptimisticLock  = errors.New("optimistic lock error: version conflict")
	ErrNotFound        = errors.New("aggregate not found")
	ErrDuplicateAppend = errors.New("batch contains an aggregate more than once")
)

// StreamAppend is one aggregate's share of an atomic batch.
type StreamAppend struct {
	AggregateID     string
	ExpectedVersion int
	Events          []events.Event
}

type EventStore interface {
	// SaveEvents appends to a single stream.
	SaveEvents(ctx context.Context, aggregateID string, expectedVersion int, eventsToSave []events.Event) error

	// SaveBatch appends to several streams; either every append is stored or none is.
	SaveBatch(ctx context.Context, batch []StreamAppend) error

	GetEvents(ctx context.Context, aggregateID string) ([]events.Event, error)

	// GetEventsAfterVersion returns the events with a version greater than version.
	GetEventsAfterVersion(ctx context.Context, aggregateID string, version int) ([]events.Event, error)
}

type InMemoryEventStore struct {
	sync.RWMutex
	streams map[string][]events.Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams: make(map[string][]events.Event),
	}
}

func (s *InMemoryEventStore) SaveEvents(ctx context.Context, aggregateID string, expectedVersion int, newEvents []events.Event) error {
	return s.SaveBatch(ctx, []StreamAppend{{AggregateID: aggregateID, ExpectedVersion: expectedVersion, Events: newEvents}})
}

func (s *InMemoryEventStore) SaveBatch(ctx context.Context, batch []StreamAppend) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if err := checkDistinct(batch); err != nil {
		return err
	}
	for _, a := range batch {
		if err := s.checkAppend(a); err != nil {
			return err
		}
	}

	for _, a := range batch {
		if len(a.Events) == 0 {
			slog.Warn("SaveBatch called with zero events", "aggregate_id", a.AggregateID)
			continue
		}
		s.streams[a.AggregateID] = append(s.streams[a.AggregateID], a.Events...)
	}
	return nil
}

// checkAppend validates one append against the current stream. Caller holds the lock.
func (s *InMemoryEventStore) checkAppend(a StreamAppend) error {
	currentVersion := 0
	if stream := s.streams[a.AggregateID]; len(stream) > 0 {
		currentVersion = stream[len(stream)-1].GetBase().Version
	}

	if currentVersion != a.ExpectedVersion {
		return fmt.Errorf("%w: expected version %d, but current version is %d for aggregate %s",
			ErrOptimisticLock, a.ExpectedVersion, currentVersion, a.AggregateID)
	}
	return validateSequence(a)
}

// checkDistinct rejects a batch that appends to one stream twice; each
// append's expected version would be checked against the same head.
func checkDistinct(batch []StreamAppend) error {
	seen := make(map[string]bool, len(batch))
	for _, a := range batch {
		if seen[a.AggregateID] {
			return fmt.Errorf("%w: %s", ErrDuplicateAppend, a.AggregateID)
		}
		seen[a.AggregateID] = true
	}
	return nil
}

func validateSequence(a StreamAppend) error {
	nextVersion := a.ExpectedVersion
	for _, event := range a.Events {
		base := event.GetBase()
		nextVersion++
		if base.Version != nextVersion {
			return fmt.Errorf("event sequence error for aggregate %s: expected version %d for event %T (%s), but got %d",
				a.AggregateID, nextVersion, event, base.EventID, base.Version)
		}
		if base.AggregateID != a.AggregateID {
			return fmt.Errorf("event aggregate ID mismatch: stream is for %s, but event %T (%s) has ID %s",
				a.AggregateID, event, base.EventID, base.AggregateID)
		}
	}
	return nil
}

func (s *InMemoryEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	streamData, ok := s.streams[aggregateID]
	if !ok {
		return []events.Event{}, nil
	}

	copiedStream := make([]events.Event, len(streamData))
	copy(copiedStream, streamData)
	return copiedStream, nil
}

func (s *InMemoryEventStore) GetEventsAfterVersion(ctx context.Context, aggregateID string, version int) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	streamData := s.streams[aggregateID]
	if version < 0 {
		version = 0
	}
	// Versions are contiguous from 1, so the event at index version is the first one after it.
	if version >= len(streamData) {
		return []events.Event{}, nil
	}

	result := make([]events.Event, len(streamData)-version)
	copy(result, streamData[version:])
	return result, nil
}

// --- Test Helpers ---

// SetStream forcefully replaces the event stream for a given aggregate ID.
// WARNING: Use ONLY in tests to simulate concurrent writers.
func (s *InMemoryEventStore) SetStream(aggregateID string, stream []events.Event) {
	s.Lock()
	defer s.Unlock()
	if stream == nil {
		delete(s.streams, aggregateID)
	} else {
		streamCopy := make([]events.Event, len(stream))
		copy(streamCopy, stream)
		s.streams[aggregateID] = streamCopy
	}
}
