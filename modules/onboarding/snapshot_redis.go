package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "onboarding:snapshot:"

// RedisSnapshotStore caches machine-context snapshots in Redis with a TTL.
// All operations are best-effort from the orchestrator's perspective; the
// store only reports errors so they can be logged.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) Write(ctx context.Context, processID string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKeyPrefix+processID, b, s.ttl).Err()
}

func (s *RedisSnapshotStore) Read(ctx context.Context, processID string) (Snapshot, bool, error) {
	b, err := s.client.Get(ctx, snapshotKeyPrefix+processID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		// A corrupted snapshot is treated as absent; the process record is
		// the source of truth.
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
