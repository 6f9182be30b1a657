package search

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/davedean/lidmeta/internal/interfaces"
)

type cacheKey struct {
	query string
	limit int
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s|%d", k.query, k.limit)
}

type cacheValue struct {
	key       cacheKey
	storedAt  time.Time
	results   []interfaces.SearchResult
}

// ResultCache is a bounded LRU with a TTL, per spec.md §3/§5: eviction is
// lazy on read and opportunistic on insert, and access is serialized by a
// short-held lock.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
}

func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns a cached result list if a non-expired entry exists for
// query/limit.
func (c *ResultCache) Get(query string, limit int) ([]interfaces.SearchResult, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	key := cacheKey{query: query, limit: limit}.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	val := el.Value.(*cacheValue)
	if time.Since(val.storedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return val.results, true
}

// Put stores results for query/limit, evicting the least-recently-used
// entry if at capacity.
func (c *ResultCache) Put(query string, limit int, results []interfaces.SearchResult) {
	if c.capacity <= 0 {
		return
	}
	key := cacheKey{query: query, limit: limit}.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheValue).results = results
		el.Value.(*cacheValue).storedAt = time.Now()
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheValue{
		key:      cacheKey{query: query, limit: limit},
		storedAt: time.Now(),
		results:  results,
	})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheValue).key.String())
	}
}
