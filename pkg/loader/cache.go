package loader

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes loaded file contents by CacheKey. Concurrent loads of the
// same key share one call.
type Cache struct {
	mu    sync.RWMutex
	data  map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.data[key]
	return b, ok
}

// Load returns the cached content for file or calls load and caches its
// result. Errors are not cached.
func (c *Cache) Load(file GraphFile, load func() ([]byte, error)) ([]byte, error) {
	key := CacheKey(file)
	if b, ok := c.get(key); ok {
		return b, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if b, ok := c.get(key); ok {
			return b, nil
		}
		b, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.data[key] = b
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
