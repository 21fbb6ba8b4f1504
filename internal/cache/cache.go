package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 1024

// Cache is a small in-process TTL cache for public catalogue reads.
// Entries also fall out once more than defaultSize keys are held.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		lru: expirable.NewLRU[string, V](defaultSize, nil, ttl),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[V]) Set(key string, val V) {
	c.lru.Add(key, val)
}

func (c *Cache[V]) Delete(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[V]) Clear() {
	c.lru.Purge()
}
