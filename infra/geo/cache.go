package geo

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/conexio/leadrouter/core/model"
)

// coordCache wraps patrickmn/go-cache for resolved coordinates, keyed by
// postal code. Entries carry the configured TTL; go-cache checks expiry on
// Get, so a stale entry is never returned.
type coordCache struct {
	cache *gocache.Cache
}

func newCoordCache(ttl time.Duration) *coordCache {
	return &coordCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *coordCache) get(zip string) (model.Coordinate, bool) {
	v, ok := c.cache.Get(zip)
	if !ok {
		return model.Coordinate{}, false
	}
	return v.(model.Coordinate), true
}

func (c *coordCache) set(zip string, coord model.Coordinate) {
	c.cache.Set(zip, coord, gocache.DefaultExpiration)
}
