package search

import (
	"sync"

	"github.com/aroovee/rxmindr-sub000/entities"
)

// queryCache is a bounded map from normalized query to its ordered result
// list. When capacity is exceeded the oldest half of the entries is evicted
// in one batch (insertion order, not strict LRU). Entries are tied to a
// catalog snapshot version: a publish of a newer snapshot implicitly drops
// everything, so stale results never survive an index rebuild.
type queryCache struct {
	mu       sync.Mutex
	capacity int
	version  uint64
	entries  map[string][]entities.SearchResult
	order    []string
}

func newQueryCache(capacity int) *queryCache {
	return &queryCache{
		capacity: capacity,
		entries:  make(map[string][]entities.SearchResult, capacity),
	}
}

// Get returns the cached results for the query, provided the cache was filled
// against the same catalog version.
func (c *queryCache) Get(query string, version uint64) ([]entities.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != version {
		c.resetLocked(version)
		return nil, false
	}

	results, ok := c.entries[query]
	return results, ok
}

// Put stores the results for the query under the given catalog version,
// batch-evicting the oldest half when over capacity.
func (c *queryCache) Put(query string, version uint64, results []entities.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != version {
		c.resetLocked(version)
	}

	if _, exists := c.entries[query]; !exists {
		if len(c.order) >= c.capacity {
			// At capacity 1 the halving would evict nothing
			half := len(c.order) / 2
			if half < 1 {
				half = 1
			}
			for _, old := range c.order[:half] {
				delete(c.entries, old)
			}
			c.order = append(c.order[:0], c.order[half:]...)
		}
		c.order = append(c.order, query)
	}
	c.entries[query] = results
}

// Len returns the current number of cached queries.
func (c *queryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *queryCache) resetLocked(version uint64) {
	c.version = version
	c.entries = make(map[string][]entities.SearchResult, c.capacity)
	c.order = c.order[:0]
}
