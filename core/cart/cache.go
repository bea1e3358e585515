package cart

import "sync"

// CountCache memoizes per-user item counts. It is advisory only: every
// mutation path invalidates the entry instead of updating it in place, so
// the next count query recomputes from the store.
type CountCache struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
}

func NewCountCache(max int) *CountCache {
	if max <= 0 {
		max = 1024
	}
	return &CountCache{
		max:    max,
		counts: make(map[string]int),
	}
}

func (c *CountCache) Get(userID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.counts[userID]
	return n, ok
}

func (c *CountCache) Set(userID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.counts[userID]; !ok && len(c.counts) >= c.max {
		// At capacity: drop an arbitrary entry rather than grow without
		// bound. The cache is a hint, not a source of truth.
		for k := range c.counts {
			delete(c.counts, k)
			break
		}
	}
	c.counts[userID] = n
}

func (c *CountCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.counts, userID)
}
