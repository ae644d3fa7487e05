// Package artwork caches fetched album-art images so the reveal
// transition never waits on the network.
package artwork

import (
	"image"
	"sync"
)

// Cache is a keyed in-memory cache of decoded album art. Entries are
// immutable once inserted; a new fetch for the same ref replaces the
// entry rather than mutating it, so concurrent readers are safe.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCache creates an empty artwork cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string]image.Image)}
}

// Get returns the cached image for ref, or nil if absent.
func (c *Cache) Get(ref string) image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.images[ref]
}

// Put stores an image under ref, replacing any previous entry.
func (c *Cache) Put(ref string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[ref] = img
}

// Clear drops all entries. Called on every new-track transition so the
// cache holds at most one track's worth of images.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make(map[string]image.Image)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
