package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL map. Writes sweep expired entries at most
// once per default TTL, so keys that are never read again still go away.
type Cache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	m         map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	val any
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.expire(key, now)
		return nil, false
	}

	return e.val, true
}

// expire deletes key only if it is still expired under the write lock; a
// concurrent Set may have refreshed it after Get released the read lock.
func (c *Cache) expire(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.m[key]; ok && now.After(cur.exp) {
		delete(c.m, key)
	}
}

// Set stores val for ttl, or for the cache default when ttl <= 0.
func (c *Cache) Set(key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
	}
	c.m[key] = entry{val: val, exp: now.Add(ttl)}
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

func (c *Cache) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	c.lastSweep = now
	return removed
}
