package auth

import (
	"sync"
	"time"
)

// ReplayCache remembers keys until their expiry so a repeat inside the
// window can be refused. Expired keys are dropped on Seen and by Sweep.
type ReplayCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock func() time.Time
	seen  map[string]time.Time
}

// NewReplayCache returns a cache holding each key for ttl. A nil clock
// means time.Now.
func NewReplayCache(ttl time.Duration, clock func() time.Time) *ReplayCache {
	if clock == nil {
		clock = time.Now
	}
	return &ReplayCache{ttl: ttl, clock: clock, seen: make(map[string]time.Time)}
}

// Seen reports whether key was recorded and is still live. If not, key is
// recorded now.
func (c *ReplayCache) Seen(key string) bool {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if exp, ok := c.seen[key]; ok && !now.After(exp) {
		return true
	}
	c.seen[key] = now.Add(c.ttl)
	return false
}

// Sweep drops expired keys and returns how many were removed.
func (c *ReplayCache) Sweep() int {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, exp := range c.seen {
		if now.After(exp) {
			delete(c.seen, k)
			n++
		}
	}
	return n
}

// Len returns the number of keys held, expired or not.
func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
