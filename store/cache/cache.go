// Package cache provides the in-process LRU used by the store for hot per-user rows.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config configures an LRU.
type Config struct {
	DefaultTTL time.Duration
	MaxItems   int
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// LRU is a fixed-capacity cache with per-entry expiry.
type LRU[K comparable, V any] struct {
	items    map[K]*entry[K, V]
	order    *list.List
	capacity int
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

type entry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
}

// New creates an LRU. Zero values fall back to 1000 items and 10 minutes.
func New[K comparable, V any](cfg Config) *LRU[K, V] {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LRU[K, V]{
		items:    make(map[K]*entry[K, V]),
		order:    list.New(),
		capacity: cfg.MaxItems,
		ttl:      cfg.DefaultTTL,
		now:      cfg.Now,
	}
}

// Get returns the cached value and refreshes its recency.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key with the default TTL, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*entry[K, V]))
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: expiresAt}
	e.element = c.order.PushFront(e)
	c.items[key] = e
}

// Delete drops key if present.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
}

// Len returns the number of entries, expired ones included until touched.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Must be called with lock held.
func (c *LRU[K, V]) remove(e *entry[K, V]) {
	c.order.Remove(e.element)
	delete(c.items, e.key)
}
