package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Node-scoped TTL and capacity values.
const (
	RouterTTL   = 10 * time.Minute
	RouterCap   = 200
	PlannerTTL  = 5 * time.Minute
	PlannerCap  = 100
	ComposerTTL = 3 * time.Minute
	ComposerCap = 50
	DirectTTL   = 1 * time.Hour
	DirectCap   = 50
)

// Caches bundles the four per-node caches the Orchestrator consults.
// Each is guarded by its own lock (the in-memory implementation's
// mutex, or Redis's own concurrency), never a single shared one.
type Caches struct {
	Router   Cache
	Planner  Cache
	Composer Cache
	Direct   Cache
}

// NewInMemorySet builds the four caches backed entirely by process
// memory, used when CACHE_BACKEND is unset or "memory".
func NewInMemorySet() *Caches {
	return &Caches{
		Router:   NewInMemory(RouterCap),
		Planner:  NewInMemory(PlannerCap),
		Composer: NewInMemory(ComposerCap),
		Direct:   NewInMemory(DirectCap),
	}
}

// NewRedisSet builds the four caches backed by one Redis client, each
// under its own key prefix so TTLs and invalidation never cross over.
func NewRedisSet(client *redis.Client) *Caches {
	return &Caches{
		Router:   NewRedis(client, "cache:router"),
		Planner:  NewRedis(client, "cache:planner"),
		Composer: NewRedis(client, "cache:composer"),
		Direct:   NewRedis(client, "cache:direct"),
	}
}

// InvalidateAll drops every entry across all four caches, backing
// POST /cache/invalidate.
func (c *Caches) InvalidateAll(ctx context.Context) error {
	for _, ch := range []Cache{c.Router, c.Planner, c.Composer, c.Direct} {
		if err := ch.InvalidateAll(ctx); err != nil {
			return err
		}
	}
	return nil
}
