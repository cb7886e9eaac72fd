package geo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/conexio/leadrouter/core/logger"
	"github.com/conexio/leadrouter/core/model"
)

// Config holds resolver settings.
type Config struct {
	// PrimaryURL and SecondaryURL are geocoding endpoint bases. The
	// secondary is consulted only when the primary errors or times out.
	PrimaryURL   string `json:"primary_url"`
	SecondaryURL string `json:"secondary_url"`
	// CacheTTLSeconds governs how long resolved coordinates are reused.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
	// TimeoutSeconds bounds each provider call.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.PrimaryURL == "" {
		return fmt.Errorf("geo: primary_url is required")
	}
	return nil
}

// CachedResolver implements geo.Resolver over a primary/secondary provider
// pair with a TTL cache. Concurrent resolutions of the same uncached code
// are coalesced into a single provider call.
type CachedResolver struct {
	primary   Provider
	secondary Provider
	cache     *coordCache
	flight    singleflight.Group
	timeout   time.Duration
	log       logger.Logger
}

type resolution struct {
	coord model.Coordinate
	ok    bool
}

// NewCachedResolver builds a resolver from cfg. secondary may be nil.
func NewCachedResolver(cfg Config, primary, secondary Provider, log logger.Logger) *CachedResolver {
	cfg.SetDefaults()
	return newCachedResolverWithTTL(cfg, primary, secondary, log, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

func newCachedResolverWithTTL(cfg Config, primary, secondary Provider, log logger.Logger, ttl time.Duration) *CachedResolver {
	cfg.SetDefaults()
	return &CachedResolver{
		primary:   primary,
		secondary: secondary,
		cache:     newCoordCache(ttl),
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:       log,
	}
}

// Resolve returns the coordinate for a postal code, or false when it cannot
// be resolved. Provider failures never propagate; the caller only observes
// the unresolved state.
func (r *CachedResolver) Resolve(ctx context.Context, zip string) (model.Coordinate, bool) {
	if !model.ValidZIP(zip) {
		return model.Coordinate{}, false
	}
	if coord, ok := r.cache.get(zip); ok {
		return coord, true
	}

	v, _, _ := r.flight.Do(zip, func() (any, error) {
		res := r.lookup(ctx, zip)
		if res.ok {
			r.cache.set(zip, res.coord)
		}
		return res, nil
	})
	res := v.(resolution)
	return res.coord, res.ok
}

func (r *CachedResolver) lookup(ctx context.Context, zip string) resolution {
	coords, err := r.lookupOne(ctx, r.primary, zip)
	if err != nil {
		r.log.Warnf("degraded: %s lookup %s: %v", r.primary.Name(), zip, err)
		if r.secondary == nil {
			return resolution{}
		}
		coords, err = r.lookupOne(ctx, r.secondary, zip)
		if err != nil {
			r.log.Warnf("degraded: %s lookup %s: %v", r.secondary.Name(), zip, err)
			return resolution{}
		}
	}
	if len(coords) == 0 {
		return resolution{}
	}
	return resolution{coord: coords[0], ok: true}
}

func (r *CachedResolver) lookupOne(ctx context.Context, p Provider, zip string) ([]model.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return p.Lookup(ctx, zip)
}
