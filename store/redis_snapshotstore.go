package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"transfer-ledger/domain"
)

const accountViewKeyPrefix = "account:view:"

// RedisSnapshotStore keeps account views as JSON values, one key per
// account. A ttl of 0 keeps keys forever; an expired view is rebuilt from
// the event stream by the projector.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal view for %s: %w", snapshot.AggregateID, err)
	}
	if err := s.client.Set(ctx, accountViewKeyPrefix+snapshot.AggregateID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write view for %s: %w", snapshot.AggregateID, err)
	}
	return nil
}

func (s *RedisSnapshotStore) GetLatestSnapshot(ctx context.Context, aggregateID string) (*domain.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, accountViewKeyPrefix+aggregateID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read view for %s: %w", aggregateID, err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to decode view for %s: %w", aggregateID, err)
	}
	return &snapshot, true, nil
}
