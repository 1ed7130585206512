package geo

import "sync"

// Cache is a concurrency-safe in-memory map from place name to coordinate.
// Entries never expire; place coordinates do not change within a process
// lifetime.
type Cache struct {
	mu     sync.Mutex
	coords map[string]Coord
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{coords: make(map[string]Coord)}
}

// Get returns the cached coordinate for name, if present.
func (c *Cache) Get(name string) (Coord, bool) {
	if name == "" {
		return Coord{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	coord, ok := c.coords[name]
	return coord, ok
}

// Put stores a coordinate under name. Empty names are ignored.
func (c *Cache) Put(name string, coord Coord) {
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coords[name] = coord
}
