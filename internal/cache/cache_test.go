package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1, 0)
	c.Set("b", 2, 10*time.Minute)

	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("b should still be present")
	}

	now = now.Add(time.Hour)
	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
	if len(c.m) != 0 {
		t.Fatalf("cache should be empty, has %d", len(c.m))
	}
}

func TestCacheSetSweepsUnreadKeys(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), struct{}{}, 0)
	}

	// none of the old keys is ever read again
	now = now.Add(2 * time.Minute)
	c.Set("fresh", struct{}{}, 0)

	if len(c.m) != 1 {
		t.Fatalf("expired keys kept: %d entries", len(c.m))
	}
}

func TestCacheExpireKeepsRefreshedKey(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "old", 0)
	now = now.Add(2 * time.Minute)

	// Get saw the old entry expire, then another writer refreshed the key
	// before the delete ran.
	c.Set("k", "new", 0)
	c.expire("k", now)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("refreshed entry lost: %v %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	c.expire("k", now)
	if _, ok := c.m["k"]; ok {
		t.Fatalf("expired entry kept")
	}
}
