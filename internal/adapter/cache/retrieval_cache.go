package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"docqa/internal/domain"
)

// RetrievalCache memoizes unfiltered retrieval results. Entries are tagged
// with the artifact generation they were computed against and become
// unreachable after Invalidate, so a reload can never serve stale passages.
type RetrievalCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type cacheEntry struct {
	results   []domain.ScoredPassage
	timestamp time.Time
	gen       uint64
}

func NewRetrievalCache(maxSize int, ttl time.Duration) *RetrievalCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RetrievalCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, k int) string {
	data := []byte(query)
	data = append(data, byte(k>>8), byte(k))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *RetrievalCache) Get(query string, k int) ([]domain.ScoredPassage, bool) {
	c.mu.RLock()
	key := cacheKey(query, k)
	entry, exists := c.entries[key]
	currentGen := c.gen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl || entry.gen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.results, true
}

// Put stores results computed against the given generation. Callers must
// capture the generation before running the retrieval: if an Invalidate
// lands in between, the entry keeps the old tag and Get rejects it, so a
// retrieval that raced a reload can never repopulate the cache with
// passages from the replaced artifact.
func (c *RetrievalCache) Put(query string, k int, gen uint64, results []domain.ScoredPassage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{results: results, timestamp: time.Now(), gen: gen}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &cacheEntry{results: results, timestamp: time.Now(), gen: gen}
	c.order = append(c.order, key)
}

// Generation returns the current invalidation counter, to be captured
// before a retrieval whose results will be Put.
func (c *RetrievalCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Invalidate drops all entries; called after an artifact swap.
func (c *RetrievalCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *RetrievalCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *RetrievalCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *RetrievalCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *RetrievalCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Retriever is the retrieval surface the cache wraps.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, filter *domain.Filter) ([]domain.ScoredPassage, error)
}

// CachedRetriever fronts a retriever with the cache. Filtered retrievals
// bypass the cache, since the filter is not part of the key.
type CachedRetriever struct {
	retriever Retriever
	cache     *RetrievalCache
}

func NewCachedRetriever(retriever Retriever, cache *RetrievalCache) *CachedRetriever {
	return &CachedRetriever{retriever: retriever, cache: cache}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, k int, filter *domain.Filter) ([]domain.ScoredPassage, error) {
	if filter != nil && len(filter.Conditions) > 0 {
		return r.retriever.Retrieve(ctx, query, k, filter)
	}

	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	// capture before retrieving: an Invalidate racing this call must make
	// the entry below unreachable
	gen := r.cache.Generation()
	results, err := r.retriever.Retrieve(ctx, query, k, nil)
	if err != nil {
		return nil, err
	}
	r.cache.Put(query, k, gen, results)
	return results, nil
}
