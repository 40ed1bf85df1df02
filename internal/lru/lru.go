package lru

import (
	"container/list"
	"fmt"
)

type entry struct {
	key   string
	value string
}

// PutResult describes the effect of a Put.
type PutResult struct {
	// Replaced is true when the key already had an entry.
	Replaced bool
	// DidEvict is true when a different key was evicted to make room.
	DidEvict bool
	// Evicted is the evicted key, valid only when DidEvict is set.
	Evicted string
}

// Cache is a bounded LRU cache of string values.
// It is not safe for concurrent use; the owner serializes access.
type Cache struct {
	capacity int
	index    map[string]*list.Element
	order    *list.List
}

// New creates a cache holding at most capacity entries.
func New(capacity int) (*Cache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("cache capacity must be at least 1, got %d", capacity)
	}
	return &Cache{
		capacity: capacity,
		index:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}, nil
}

// Get returns the value for key and marks it most recently used.
func (c *Cache) Get(key string) (string, bool) {
	elem, ok := c.index[key]
	if !ok {
		return "", false
	}
	value := elem.Value.(*entry).value
	// Re-inserting an existing key never evicts.
	c.Put(key, value)
	return value, true
}

// Peek returns the value for key without touching recency.
func (c *Cache) Peek(key string) (string, bool) {
	elem, ok := c.index[key]
	if !ok {
		return "", false
	}
	return elem.Value.(*entry).value, true
}

// Put inserts or replaces key as the most recently used entry. A new key
// inserted into a full cache evicts the least recently used entry first.
func (c *Cache) Put(key, value string) PutResult {
	var res PutResult

	if elem, ok := c.index[key]; ok {
		c.detach(elem)
		res.Replaced = true
	} else if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			res.DidEvict = true
			res.Evicted = oldest.Value.(*entry).key
			c.detach(oldest)
		}
	}

	c.index[key] = c.order.PushBack(&entry{key: key, value: value})
	return res
}

// Remove drops key from the cache. It reports whether the key was present.
func (c *Cache) Remove(key string) bool {
	elem, ok := c.index[key]
	if !ok {
		return false
	}
	c.detach(elem)
	return true
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	return c.order.Len()
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int {
	return c.capacity
}

// Keys returns the resident keys from least to most recently used.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*entry).key)
	}
	return keys
}

func (c *Cache) detach(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.index, elem.Value.(*entry).key)
}
