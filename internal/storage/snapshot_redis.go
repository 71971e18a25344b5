package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promptstudio/internal/redis"
	"promptstudio/internal/store"
)

const redisTimeout = 3 * time.Second

// RedisStore keeps the session snapshot as one redis value under the
// well-known key. It implements store.SnapshotPort.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads and validates the stored snapshot. A cache miss is an empty
// snapshot, not an error.
func (r *RedisStore) Load() (store.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	data, err := r.client.Get(ctx, SnapshotKey)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return store.Snapshot{}, nil
		}
		return store.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := store.DecodeSnapshot([]byte(data))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Save writes the whole snapshot; no TTL, the snapshot is durable state.
func (r *RedisStore) Save(snap store.Snapshot) error {
	data, err := store.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := r.client.Set(ctx, SnapshotKey, data, 0); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
