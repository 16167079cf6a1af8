// Package cache keeps recently converted notes in memory so repeated
// exports of the same content skip the render and transform work.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Status represents the cache lookup result.
type Status string

const (
	StatusHit  Status = "hit"
	StatusMiss Status = "miss"
	// StatusBypass marks requests that were not eligible for caching.
	StatusBypass Status = "bypass"
)

// Entry holds one converted note.
type Entry struct {
	Body        []byte
	ContentType string
	expiresAt   time.Time
}

// Size is the number of bytes the entry counts against the budget.
func (e Entry) Size() int64 {
	return int64(len(e.Body))
}

// Cache is a thread-safe, in-memory LRU cache with TTL and a byte budget.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int64
	curSize int64
	now     func() time.Time // injectable for testing
}

type cacheItem struct {
	key   string
	entry Entry
}

// New creates a cache with the given TTL and max size in bytes.
func New(ttl time.Duration, maxSize int64) *Cache {
	return &Cache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Key derives a cache key from the parts of a conversion request.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live entry for key. Expired entries are dropped and
// reported as a miss.
func (c *Cache) Get(key string) (*Entry, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, StatusMiss
	}

	item := elem.Value.(*cacheItem)
	if c.now().After(item.entry.expiresAt) {
		c.remove(elem)
		return nil, StatusMiss
	}

	c.order.MoveToFront(elem)
	entry := item.entry
	return &entry, StatusHit
}

// Put stores an entry, evicting least recently used entries to stay within
// the byte budget. An entry larger than the whole budget is not stored.
func (c *Cache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry.Size() > c.maxSize {
		if elem, ok := c.items[key]; ok {
			c.remove(elem)
		}
		return
	}

	entry.expiresAt = c.now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*cacheItem)
		c.curSize -= old.entry.Size()
		old.entry = entry
		c.curSize += entry.Size()
		c.order.MoveToFront(elem)
		c.evict()
		return
	}

	elem := c.order.PushFront(&cacheItem{key: key, entry: entry})
	c.items[key] = elem
	c.curSize += entry.Size()

	c.evict()
}

// evict removes LRU entries until curSize <= maxSize. Must be called with mu held.
func (c *Cache) evict() {
	for c.curSize > c.maxSize && c.order.Len() > 0 {
		c.remove(c.order.Back())
	}
}

// remove drops elem. Must be called with mu held.
func (c *Cache) remove(elem *list.Element) {
	item := elem.Value.(*cacheItem)
	c.curSize -= item.entry.Size()
	delete(c.items, item.key)
	c.order.Remove(elem)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the current byte size of the cache.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curSize
}
