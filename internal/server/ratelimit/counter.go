// Package ratelimit keeps windowed per-key counters for IP-level limits.
// The counter backend is optional: a Limiter built over a nil Counter allows
// everything, which is how the server degrades when IP-level limiting is
// disabled at configuration time.
package ratelimit

import (
	"sync"
	"time"
)

// Counter increments the count for key inside the window that contains now
// and returns the new count. Implementations expire old windows themselves.
type Counter interface {
	Incr(key string, window time.Duration) (int64, error)
}

type bucket struct {
	count   int64
	expires time.Time
}

// MemoryCounter is a process-local Counter. Counts are not shared between
// instances, so limits enforced through it are per-instance approximations.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[string]*bucket), now: time.Now}
}

func (c *MemoryCounter) Incr(key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	b, ok := c.buckets[key]
	if !ok || now.After(b.expires) {
		b = &bucket{expires: now.Add(window)}
		c.buckets[key] = b
	}
	b.count++

	// sweep opportunistically so idle keys do not accumulate
	if len(c.buckets) > 1024 {
		for k, v := range c.buckets {
			if now.After(v.expires) {
				delete(c.buckets, k)
			}
		}
	}

	return b.count, nil
}
