package github

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// entry is a cached response body with its validator.
type entry struct {
	body     []byte
	etag     string
	storedAt time.Time
}

// cache is a bounded, mutex-guarded LRU of API responses.
type cache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newCache(size int) *cache {
	return &cache{lru: lru.New(size)}
}

func (c *cache) get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	return e, ok
}

func (c *cache) add(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, e)
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}
