// Package cache implements the per-node TTL/LRU caches: Router
// decisions, Planner/Executor results, Composer outputs, and direct
// responses. Keys are content-hashed with SHA-256 so raw question text
// (which may carry PII) never lingers in key material, only its digest.
//
// Two backends: an opt-in Redis GET/SETEX implementation and a default
// in-memory implementation that needs no external service.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores immutable snapshots of arbitrary values behind a string
// key, with per-entry TTL and (for the in-memory implementation) a
// capacity bound enforced by least-recent-use eviction.
type Cache interface {
	// Get unmarshals the cached value for key into dest, reporting
	// whether a live (non-expired) entry existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// InvalidateAll drops every entry, used by POST /cache/invalidate.
	InvalidateAll(ctx context.Context) error
}

// Key content-hashes parts into a single cache key, scoped by namespace
// (e.g. "router", "planner", "composer", "direct") so collisions across
// node caches are impossible even if two namespaces hash the same parts.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	for _, p := range parts {
		h.Write([]byte{0}) // separator byte, avoids "ab"+"c" == "a"+"bc" collisions
		h.Write([]byte(p))
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshal(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache: unmarshaling cached value: %w", err)
	}
	return nil
}
