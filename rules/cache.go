package rules

import "sync"

// MemoryCache is an unbounded ProgramCache. Rules are compiled from a fixed
// set of configured expressions, so growth is bounded by configuration.
type MemoryCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{programs: map[string]any{}}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.programs[key]
	return v, ok
}

func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	c.programs[key] = value
	c.mu.Unlock()
}
