package checker

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// cacheKey identifies one (transcript, retriever name, config) combination.
// transcriptHash uses xxhash rather than Go's built-in string hashing so the
// key is stable across processes and doesn't depend on map-seed
// randomization; cespare/xxhash/v2 is already in the dependency graph
// (pulled in indirectly by vector-store clients elsewhere in this
// ecosystem) and is promoted here to a direct, exercised dependency.
type cacheKey struct {
	transcriptHash uint64
	retriever      string
	config         string
}

func makeCacheKey(transcript, retrieverName string, config map[string]any) cacheKey {
	return cacheKey{
		transcriptHash: xxhash.Sum64String(transcript),
		retriever:      retrieverName,
		config:         serializeConfig(config),
	}
}

// serializeConfig renders config as a canonical string. encoding/json sorts
// map keys when marshaling, so this is stable without extra bookkeeping.
func serializeConfig(config map[string]any) string {
	if len(config) == 0 {
		return ""
	}
	b, err := json.Marshal(config)
	if err != nil {
		return ""
	}
	return string(b)
}

// CacheStats mirrors the stats surface spec.md §5 requires: current size,
// configured ceiling, lifetime hit/miss counts, and a hit rate rounded to 3
// decimals.
type CacheStats struct {
	CacheSize    int
	MaxCacheSize int
	CacheHits    int
	CacheMisses  int
	HitRate      float64
}

// retrieverCache is a bounded FIFO map of Retriever instances keyed by
// (transcript hash, retriever name, serialized config), guarded by a mutex
// so distinct Verify calls sharing a Checker can run concurrently. Grounded
// on original_source/sourcecheck/checker.py's _retriever_cache /
// _get_or_create_retriever / clear_cache / get_cache_stats.
type retrieverCache struct {
	mu      sync.Mutex
	enabled bool
	maxSize int

	order   []cacheKey
	entries map[cacheKey]retrieval.Retriever

	hits   int
	misses int
}

func newRetrieverCache(enabled bool, maxSize int) *retrieverCache {
	return &retrieverCache{
		enabled: enabled,
		maxSize: maxSize,
		entries: make(map[cacheKey]retrieval.Retriever),
	}
}

// getOrBuild returns the cached Retriever for the given key, building and
// inserting one via build if absent. When the cache is disabled, build runs
// unconditionally and no stats are touched — Verify's output must be
// identical either way (spec.md §8 invariant 7, cache transparency).
func (c *retrieverCache) getOrBuild(transcript, retrieverName string, config map[string]any, build func() (retrieval.Retriever, error)) (retrieval.Retriever, error) {
	if !c.enabled {
		return build()
	}

	key := makeCacheKey(transcript, retrieverName, config)

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.entries[key]; ok {
		c.hits++
		return r, nil
	}

	c.misses++
	r, err := build()
	if err != nil {
		return nil, err
	}
	c.insertLocked(key, r)
	return r, nil
}

func (c *retrieverCache) insertLocked(key cacheKey, r retrieval.Retriever) {
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = r
	c.order = append(c.order, key)
}

// Clear zeroes the map and the hit/miss counters.
func (c *retrieverCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]retrieval.Retriever)
	c.order = nil
	c.hits = 0
	c.misses = 0
}

// Stats reports the current cache counters.
func (c *retrieverCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = round3(float64(c.hits) / float64(total))
	}
	return CacheStats{
		CacheSize:    len(c.entries),
		MaxCacheSize: c.maxSize,
		CacheHits:    c.hits,
		CacheMisses:  c.misses,
		HitRate:      hitRate,
	}
}
