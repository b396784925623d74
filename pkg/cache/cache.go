package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/clock"
)

// DefaultMaxSize is the capacity used when a non-positive size is given.
const DefaultMaxSize = 1000

// Cache is a capacity bounded key value store with a TTL per entry.
//
// When the cache is full the least recently used entry is evicted, regardless
// of whether it has expired. Expired entries are removed lazily on Get and in
// bulk by EvictExpired. A Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu sync.Mutex

	// maxSize is the maximum number of entries held.
	maxSize int

	// clk is the source of the current time.
	clk clock.Clock

	// ll orders entries from most (front) to least (back) recently used.
	ll *list.List

	// items indexes the list elements by key.
	items map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is past its expiry. A zero expiry never expires.
func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// New creates a new cache holding at most maxSize entries.
func New[K comparable, V any](maxSize int, clk clock.Clock) *Cache[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if clk == nil {
		clk = clock.Real()
	}

	return &Cache[K, V]{
		maxSize: maxSize,
		clk:     clk,
		ll:      list.New(),
		items:   make(map[K]*list.Element, maxSize),
	}
}

// Get returns the value stored for key. An expired entry is deleted and reported as absent.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[K, V])
	if e.expired(c.clk.Now()) {
		c.removeElement(el)
		return zero, false
	}

	c.ll.MoveToFront(el)
	return e.value, true
}

// Set stores value for key for the given ttl. A ttl of zero or less never expires.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clk.Now().Add(ttl)
	}

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.maxSize {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	el := c.ll.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
	c.items[key] = el
}

// Invalidate removes key from the cache. It reports whether an entry was removed.
func (c *Cache[K, V]) Invalidate(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// EvictExpired removes every expired entry and returns how many were removed.
func (c *Cache[K, V]) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	removed := 0
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry[K, V]).expired(now) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len returns the number of entries held, including expired ones not yet removed.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
