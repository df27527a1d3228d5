package store

import (
	"context"
	"fmt"
	"sync"

	"transfer-ledger/domain"
)

// SnapshotStore holds the read-model view of each account.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error

	GetLatestSnapshot(ctx context.Context, aggregateID string) (snapshot *domain.Snapshot, found bool, err error)
}

type InMemorySnapshotStore struct {
	sync.RWMutex
	snapshots map[string]domain.Snapshot
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{
		snapshots: make(map[string]domain.Snapshot),
	}
}

func (s *InMemorySnapshotStore) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	s.Lock()
	defer s.Unlock()

	s.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

func (s *InMemorySnapshotStore) GetLatestSnapshot(ctx context.Context, aggregateID string) (*domain.Snapshot, bool, error) {
	s.RLock()
	defer s.RUnlock()

	snapshot, found := s.snapshots[aggregateID]
	if !found {
		return nil, false, nil
	}
	return &snapshot, true, nil
}
