package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// resultCache keeps recent aggregation results keyed by a canonical request
// hash, with TTL expiry.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result   models.AggregationResult
	cachedAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *resultCache) get(key string) (models.AggregationResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(entry.cachedAt) > c.ttl {
		return models.AggregationResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result models.AggregationResult) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, cachedAt: time.Now()}
	c.mu.Unlock()
}

// cleanup drops expired entries and returns how many were removed.
func (c *resultCache) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if time.Since(entry.cachedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *resultCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// cacheKey canonicalizes a request plus the participating source set.
func cacheKey(req Request, domains []string) string {
	sorted := append([]string(nil), domains...)
	sort.Strings(sorted)

	canonical := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s",
		strings.Join(sorted, ","),
		strings.ToLower(req.Query),
		req.Category,
		req.Country,
		req.Language,
		req.Limit,
		req.Strategy,
	)

	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}
