package monitor

import (
	"sync"
	"time"
)

// scanCache holds the most recent snapshot for a TTL so that back-to-back
// dashboard polls are served without rescanning the host.
type scanCache struct {
	ttl       time.Duration
	mu        sync.Mutex
	snap      *Snapshot
	expiresAt time.Time
}

func newScanCache(ttl time.Duration) *scanCache {
	return &scanCache{ttl: ttl}
}

func (c *scanCache) get() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.snap, true
}

func (c *scanCache) set(snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.expiresAt = time.Now().Add(c.ttl)
}
