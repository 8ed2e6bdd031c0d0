package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore persists Snapshots under a per-thread key, selected when a
// Redis client is configured (CACHE_BACKEND=redis): plain SETEX/GET/DEL
// of a JSON blob.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Store backed by client, expiring snapshots after
// ttl of inactivity (mirrors MEMORY_TTL_HOURS).
func NewRedis(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(threadID string) string {
	return "checkpoint:" + threadID
}

func (s *redisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("checkpoint: marshaling snapshot: %w", err)
	}
	if err := s.client.SetEx(ctx, s.key(snap.ThreadID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint: setex: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, threadID string) (Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("checkpoint: get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("checkpoint: unmarshaling snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *redisStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("checkpoint: del: %w", err)
	}
	return nil
}
