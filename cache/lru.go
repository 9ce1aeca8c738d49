// Package cache provides a byte-size-bounded LRU cache for decoded native
// artifacts, plus a memory-adaptive capacity sizer.
package cache

import "sync"

// maxEntries caps the entry count. It is set high enough that cumulative
// byte size is the only effective bound.
const maxEntries = 1 << 20

// entry is a node in the intrusive LRU list. head is most recently used,
// tail is next to be evicted.
type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64

	prev *entry[K, V]
	next *entry[K, V]
}

// LRU is a thread-safe cache that evicts by cumulative byte size.
// Each value carries a caller-supplied size estimate; once the sum exceeds
// the capacity, least recently used entries are dropped until it fits.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int64
	entries  map[K]*entry[K, V]
	head     *entry[K, V]
	tail     *entry[K, V]
	size     int64
}

// New creates an LRU bounded to capacityBytes. A non-positive capacity is
// treated as unbounded.
func New[K comparable, V any](capacityBytes int64) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacityBytes,
		entries:  make(map[K]*entry[K, V]),
	}
}

// Get returns the cached value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Set inserts or replaces the value for key with the given size estimate,
// evicting least recently used entries as needed. An item larger than the
// whole capacity is not cached at all.
func (c *LRU[K, V]) Set(key K, value V, sizeBytes int64) {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	if c.capacity > 0 && sizeBytes > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.size += sizeBytes - e.size
		e.value = value
		e.size = sizeBytes
		c.moveToFront(e)
	} else {
		e := &entry[K, V]{key: key, value: value, size: sizeBytes}
		c.entries[key] = e
		c.pushFront(e)
		c.size += sizeBytes
	}

	for c.tail != nil && ((c.capacity > 0 && c.size > c.capacity) || len(c.entries) > maxEntries) {
		c.evict(c.tail)
	}
}

// Remove drops the entry for key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.evict(e)
	}
}

// Clear drops every entry.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.head, c.tail = nil, nil
	c.size = 0
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes returns the cumulative size of all cached entries.
func (c *LRU[K, V]) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Capacity returns the configured byte capacity (0 = unbounded).
func (c *LRU[K, V]) Capacity() int64 {
	return c.capacity
}

func (c *LRU[K, V]) pushFront(e *entry[K, V]) {
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

func (c *LRU[K, V]) unlink(e *entry[K, V]) {
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
	e.prev, e.next = nil, nil
}

func (c *LRU[K, V]) moveToFront(e *entry[K, V]) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *LRU[K, V]) evict(e *entry[K, V]) {
	c.unlink(e)
	delete(c.entries, e.key)
	c.size -= e.size
}
