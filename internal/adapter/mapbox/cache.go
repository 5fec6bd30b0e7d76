package mapbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/observability"
)

// CachedPlacer wraps a NearestPlacer with an in-memory LRU cache. Epicenters
// cluster spatially during sequences, so rounding the cache key to ~10 m
// keeps aftershocks of one event from re-querying the API.
type CachedPlacer struct {
	inner   convert.NearestPlacer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedPlacer creates a cache decorator around a placer.
func NewCachedPlacer(inner convert.NearestPlacer, maxEntries int, metrics *observability.Metrics) *CachedPlacer {
	return &CachedPlacer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedPlacer) NearestPlace(ctx context.Context, lon, lat float64) (string, error) {
	key := fmt.Sprintf("%.4f,%.4f", lon, lat)
	if place, ok := c.cache.get(key); ok {
		c.metrics.PlaceCache.WithLabelValues("hit").Inc()
		return place, nil
	}
	c.metrics.PlaceCache.WithLabelValues("miss").Inc()

	place, err := c.inner.NearestPlace(ctx, lon, lat)
	if err != nil {
		return "", err
	}
	if place != "" {
		c.cache.put(key, place)
	}
	return place, nil
}

// lruCache is a simple thread-safe LRU cache of description strings.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	evicted := c.tail
	c.unlink(evicted)
	delete(c.entries, evicted.key)
}
