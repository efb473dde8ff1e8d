package engine

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheTTL is how long cached results stay valid
const DefaultCacheTTL = 5 * time.Minute

// QueryCache caches query results
type QueryCache struct {
	cache map[uint64]*cacheEntry
	mu    sync.RWMutex
	size  int
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	result    QueryData
	timestamp time.Time
}

// NewQueryCache creates a new query cache. A size of zero or less disables
// caching.
func NewQueryCache(size int, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QueryCache{
		cache: make(map[uint64]*cacheEntry),
		size:  size,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GenerateKey generates a cache key for a query
func (c *QueryCache) GenerateKey(namespace, query string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(namespace)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(query)
	return d.Sum64()
}

// Get retrieves a cached result
func (c *QueryCache) Get(key uint64) (QueryData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl {
		return nil, false
	}

	return cloneData(entry.result), true
}

// Set stores a result in cache
func (c *QueryCache) Set(key uint64, result QueryData) {
	if c.size <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict the oldest entry when full
	if _, exists := c.cache[key]; !exists && len(c.cache) >= c.size {
		var oldestKey uint64
		var oldestTime time.Time
		for k, v := range c.cache {
			if oldestTime.IsZero() || v.timestamp.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.timestamp
			}
		}
		delete(c.cache, oldestKey)
	}

	c.cache[key] = &cacheEntry{
		result:    cloneData(result),
		timestamp: c.now(),
	}
}

// Len returns the number of cached entries
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Purge drops every cached entry
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[uint64]*cacheEntry)
}

func cloneData(data QueryData) QueryData {
	out := make(QueryData, len(data))
	for i, row := range data {
		out[i] = copyRow(row)
	}
	return out
}
