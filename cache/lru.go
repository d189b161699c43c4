package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded store with per-entry expiry. The embedding memo and the
// in-memory answer store both sit on top of it, so it must tolerate many
// in-flight requests.
type Cache interface {
	Get(key string) (any, bool)
	// Set stores a value; a non-positive ttl falls back to the cache default.
	Set(key string, value any, ttl time.Duration)
	// Delete evicts one entry. Callers use it to drop corrupted values.
	Delete(key string)
	Len() int
	Purge()
}

// lruCache evicts least-recently-used entries once full. Expiry is lazy: an
// expired entry occupies a slot until a Get touches it or eviction reaches it.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruEntry
	order    *list.List // front = most recently used
}

type lruEntry struct {
	key     string
	value   any
	expires time.Time
	element *list.Element
}

// NewLRU creates an LRU cache with the given capacity and default TTL.
func NewLRU(capacity int, ttl time.Duration) Cache {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry, capacity),
		order:    list.New(),
	}
}

func (c *lruCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !ent.expires.IsZero() && !time.Now().Before(ent.expires) {
		// expired counts as absent
		c.drop(ent)
		return nil, false
	}
	c.order.MoveToFront(ent.element)
	return ent.value, true
}

func (c *lruCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		ent.value = value
		ent.expires = c.expiryFor(ttl)
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictBack()
	}
	c.items[key] = &lruEntry{
		key:     key,
		value:   value,
		expires: c.expiryFor(ttl),
		element: c.order.PushFront(key),
	}
}

func (c *lruCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.drop(ent)
	}
}

func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *lruCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry, c.capacity)
	c.order.Init()
}

func (c *lruCache) expiryFor(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (c *lruCache) evictBack() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	if ent, ok := c.items[elem.Value.(string)]; ok {
		c.drop(ent)
	}
}

func (c *lruCache) drop(ent *lruEntry) {
	if ent.element != nil {
		c.order.Remove(ent.element)
	}
	delete(c.items, ent.key)
}
