package cache

import (
	"context"
	"testing"
	"time"
)

func TestInMemory_SetGetRoundTrip(t *testing.T) {
	c := NewInMemory(10)
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}

	if err := c.Set(ctx, "k1", payload{Value: "a"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	ok, err := c.Get(ctx, "k1", &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if out.Value != "a" {
		t.Errorf("got %q, want %q", out.Value, "a")
	}
}

func TestInMemory_ExpiredEntryIsMiss(t *testing.T) {
	c := NewInMemory(10)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out string
	ok, err := c.Get(ctx, "k1", &out)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss on expired entry")
	}
}

func TestInMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewInMemory(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", "1", time.Minute)
	_ = c.Set(ctx, "b", "2", time.Minute)

	var tmp string
	_, _ = c.Get(ctx, "a", &tmp) // touch "a" so "b" becomes least-recent

	_ = c.Set(ctx, "c", "3", time.Minute) // should evict "b"

	ok, _ := c.Get(ctx, "b", &tmp)
	if ok {
		t.Error("expected b to be evicted")
	}
	ok, _ = c.Get(ctx, "a", &tmp)
	if !ok {
		t.Error("expected a to survive (recently touched)")
	}
	ok, _ = c.Get(ctx, "c", &tmp)
	if !ok {
		t.Error("expected c to be present")
	}
}

func TestInMemory_InvalidateAll(t *testing.T) {
	c := NewInMemory(10)
	ctx := context.Background()
	_ = c.Set(ctx, "a", "1", time.Minute)
	_ = c.Set(ctx, "b", "2", time.Minute)

	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}

	var tmp string
	if ok, _ := c.Get(ctx, "a", &tmp); ok {
		t.Error("expected a gone after InvalidateAll")
	}
	if ok, _ := c.Get(ctx, "b", &tmp); ok {
		t.Error("expected b gone after InvalidateAll")
	}
}

func TestKey_DeterministicAndNamespaced(t *testing.T) {
	k1 := Key("router", "hola")
	k2 := Key("router", "hola")
	if k1 != k2 {
		t.Error("expected Key to be deterministic")
	}

	k3 := Key("planner", "hola")
	if k1 == k3 {
		t.Error("expected different namespaces to hash differently")
	}

	// Concatenation collision check: "ab"+"c" vs "a"+"bc".
	if Key("ns", "ab", "c") == Key("ns", "a", "bc") {
		t.Error("expected part-separated hashing to avoid concatenation collisions")
	}
}
