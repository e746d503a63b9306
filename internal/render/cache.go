package render

import (
	"container/list"
	"sync"
)

// Cache is a bounded LRU of rendered bitmaps keyed by content hash.
// The synchronizer consults it before rendering; a page the user flips
// back to repaints from cache without touching the renderer.
//
// All methods are thread-safe.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[uint64]*list.Element
}

type cacheEntry struct {
	hash   uint64
	bitmap *Bitmap
}

// NewCache creates a cache holding at most capacity bitmaps.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[uint64]*list.Element),
	}
}

// Get returns the cached bitmap for a hash, marking it recently used.
func (c *Cache) Get(hash uint64) (*Bitmap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).bitmap, true
}

// Put stores a bitmap, evicting the least recently used entry when the
// cache is full.
func (c *Cache) Put(bitmap *Bitmap) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[bitmap.Hash()]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).bitmap = bitmap
		return
	}

	elem := c.order.PushFront(&cacheEntry{hash: bitmap.Hash(), bitmap: bitmap})
	c.entries[bitmap.Hash()] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).hash)
	}
}

// Len returns the number of cached bitmaps.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
