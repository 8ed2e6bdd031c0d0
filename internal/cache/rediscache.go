package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rediscache backs Cache with SETEX/GET, selected when CACHE_BACKEND=redis.
type rediscache struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a Cache backed by client, namespacing every key under
// prefix (so one Redis instance can host multiple cache deployments).
func NewRedis(client *redis.Client, prefix string) Cache {
	return &rediscache{client: client, prefix: prefix}
}

func (c *rediscache) fullKey(key string) string {
	return c.prefix + ":" + key
}

func (c *rediscache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("rediscache: get: %w", err)
	}
	if err := unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *rediscache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.SetEx(ctx, c.fullKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: setex: %w", err)
	}
	return nil
}

// InvalidateAll scans and deletes every key under prefix. Redis has no
// namespace-wide flush short of FLUSHDB (too broad — it would affect
// other tenants of the same instance), so this walks keys in batches.
func (c *rediscache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("rediscache: del: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rediscache: scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("rediscache: del: %w", err)
		}
	}
	return nil
}
