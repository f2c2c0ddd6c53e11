package client

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
)

// rewriteEntry is one cached placeholder-rewrite result.
type rewriteEntry struct {
	sql        string
	paramCount int
}

// rewriteCache memoizes Rewrite results keyed by the xxhash fingerprint of
// the raw SQL, with LRU eviction. Re-preparing identical SQL skips the
// scanner entirely.
type rewriteCache struct {
	mu          sync.Mutex
	entries     map[uint64]rewriteEntry
	accessOrder []uint64
	maxSize     int
	stats       *RewriteCacheStats
}

// RewriteCacheStats tracks rewrite cache performance counters.
type RewriteCacheStats struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Evictions atomic.Int64
}

func newRewriteCache(maxSize int) *rewriteCache {
	return &rewriteCache{
		entries:     make(map[uint64]rewriteEntry, maxSize),
		accessOrder: make([]uint64, 0, maxSize),
		maxSize:     maxSize,
		stats:       &RewriteCacheStats{},
	}
}

// rewrite returns the cached rewrite for sql, scanning and caching on miss.
func (c *rewriteCache) rewrite(sql string) (string, int) {
	key := xxhash.Sum64String(sql)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.stats.Hits.Add(1)
		c.touchLocked(key)
		return entry.sql, entry.paramCount
	}

	c.stats.Misses.Add(1)
	rewritten, paramCount := Rewrite(sql)

	if len(c.accessOrder) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = rewriteEntry{sql: rewritten, paramCount: paramCount}
	c.accessOrder = append(c.accessOrder, key)

	return rewritten, paramCount
}

// Stats returns the cache counters.
func (c *rewriteCache) Stats() *RewriteCacheStats {
	return c.stats
}

// evictLocked drops the least recently used entry. Caller holds mu.
func (c *rewriteCache) evictLocked() {
	if len(c.accessOrder) == 0 {
		return
	}
	lru := c.accessOrder[0]
	c.accessOrder = c.accessOrder[1:]
	delete(c.entries, lru)
	c.stats.Evictions.Add(1)
}

// touchLocked moves a key to the most-recently-used end. Caller holds mu.
func (c *rewriteCache) touchLocked(key uint64) {
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, key)
}
