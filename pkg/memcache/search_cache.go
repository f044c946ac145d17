package memcache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SearchCache is a small TTL cache for external lookups (place search
// results). Values are stored as-is; the caller owns type assertions.
type SearchCache struct {
	store *gocache.Cache
}

func NewSearchCache(ttl time.Duration) *SearchCache {
	return &SearchCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *SearchCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *SearchCache) Set(key string, value interface{}) {
	c.store.SetDefault(key, value)
}
