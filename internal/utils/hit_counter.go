package utils

import (
	"sync"
	"time"
)

// HitCounter counts events per key over a trailing window. Keys with no hits
// left in the window are dropped, either when they are seen again or by the
// sweep Add runs once per window.
type HitCounter struct {
	mu        sync.Mutex
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
}

func NewHitCounter(window time.Duration) *HitCounter {
	return &HitCounter{window: window, hits: make(map[string][]time.Time)}
}

// Add records a hit for key at now and returns the hits inside the window.
func (c *HitCounter) Add(key string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep(now)
	hits := append(c.prune(key, now), now)
	c.hits[key] = hits
	return len(hits)
}

func (c *HitCounter) Count(key string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prune(key, now))
}

// Len reports how many keys are tracked.
func (c *HitCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hits)
}

func (c *HitCounter) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.window {
		return
	}
	c.lastSweep = now
	for key := range c.hits {
		c.prune(key, now)
	}
}

func (c *HitCounter) prune(key string, now time.Time) []time.Time {
	hits := c.hits[key]
	cutoff := now.Add(-c.window)
	idx := 0
	for idx < len(hits) && !hits[idx].After(cutoff) {
		idx++
	}
	hits = hits[idx:]
	if len(hits) == 0 {
		delete(c.hits, key)
		return nil
	}
	c.hits[key] = hits
	return hits
}
