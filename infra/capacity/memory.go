// Package capacity provides the capacity store implementations: an
// in-memory TTL-cached store with atomic per-location reservations, backed
// optionally by a remote key-value store.
package capacity

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	corecap "github.com/conexio/leadrouter/core/capacity"
	"github.com/conexio/leadrouter/core/logger"
	"github.com/conexio/leadrouter/core/model"
)

// Config holds capacity store settings.
type Config struct {
	// CacheTTLSeconds governs how long capacity reads are reused.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
	// TimeoutSeconds bounds remote store calls.
	TimeoutSeconds int         `json:"timeout_seconds"`
	Redis          RedisConfig `json:"redis"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 300
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
}

// KV is the optional remote persistence backend, keyed by location ID.
type KV interface {
	Get(ctx context.Context, locationID string) (corecap.Info, bool, error)
	Put(ctx context.Context, locationID string, info corecap.Info) error
	Close() error
}

// SlotSource synthesizes slot counts when neither the remote store nor the
// location configuration carries load figures. Injected so tests use a
// deterministic double while production uses the seeded random source.
type SlotSource interface {
	Slots(locationID string, maxDailyLoad int) int
}

// RandSource is the production fallback source. Snapshots built from it are
// flagged Simulated so downstream consumers can discount them.
type RandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource creates a RandSource with the given seed.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{rng: rand.New(rand.NewSource(seed))}
}

// Slots returns a random count in [0, maxDailyLoad].
func (r *RandSource) Slots(_ string, maxDailyLoad int) int {
	if maxDailyLoad <= 0 {
		maxDailyLoad = 10
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(maxDailyLoad + 1)
}

// locState is the authoritative local counter for one location. Its mutex
// is the single serialization point for reservations.
type locState struct {
	mu          sync.Mutex
	slots       int
	operational bool
	simulated   bool
}

// MemoryStore implements capacity.Store. Reads are served from a go-cache
// TTL cache; reservations go through a per-location mutex and are written
// through to the remote store best-effort.
type MemoryStore struct {
	cfg    Config
	kv     KV
	source SlotSource
	log    logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	states map[string]*locState
	cache  *gocache.Cache
}

// NewMemoryStore creates a MemoryStore. kv may be nil; a nil source falls
// back to a time-seeded RandSource, a nil clock to time.Now.
func NewMemoryStore(cfg Config, kv KV, source SlotSource, log logger.Logger, clock func() time.Time) *MemoryStore {
	cfg.SetDefaults()
	return newMemoryStoreWithTTL(cfg, kv, source, log, clock, time.Duration(cfg.CacheTTLSeconds)*time.Second)
}

func newMemoryStoreWithTTL(cfg Config, kv KV, source SlotSource, log logger.Logger, clock func() time.Time, ttl time.Duration) *MemoryStore {
	cfg.SetDefaults()
	if source == nil {
		source = NewRandSource(time.Now().UnixNano())
	}
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		cfg:    cfg,
		kv:     kv,
		source: source,
		log:    log,
		now:    clock,
		states: make(map[string]*locState),
		cache:  gocache.New(ttl, 2*ttl),
	}
}

// Capacity returns a snapshot for the location. Snapshots may be up to the
// cache TTL stale; staleness is corrected at reservation time, never causing
// oversubscription.
func (s *MemoryStore) Capacity(ctx context.Context, loc model.Location) corecap.Info {
	if v, ok := s.cache.Get(loc.ID); ok {
		return v.(corecap.Info)
	}
	st := s.state(ctx, loc)
	st.mu.Lock()
	info := corecap.Info{
		HasCapacity:    st.slots > 0 && st.operational,
		AvailableSlots: st.slots,
		Operational:    st.operational,
		Simulated:      st.simulated,
		LastUpdated:    s.now(),
	}
	st.mu.Unlock()

	s.cache.Set(loc.ID, info, gocache.DefaultExpiration)
	return info
}

// Reserve claims one slot atomically. Two concurrent reservations against a
// location with one remaining slot cannot both succeed.
func (s *MemoryStore) Reserve(ctx context.Context, locationID string) error {
	s.mu.Lock()
	st, ok := s.states[locationID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("capacity: unknown location %s: %w", locationID, corecap.ErrNoSlots)
	}

	st.mu.Lock()
	if !st.operational || st.slots <= 0 {
		st.mu.Unlock()
		return corecap.ErrNoSlots
	}
	st.slots--
	snapshot := corecap.Info{
		HasCapacity:    st.slots > 0,
		AvailableSlots: st.slots,
		Operational:    st.operational,
		Simulated:      st.simulated,
		LastUpdated:    s.now(),
	}
	st.mu.Unlock()

	s.cache.Delete(locationID)

	if s.kv != nil {
		// Write-through is best-effort; a failed put costs a stale remote
		// read, never a lost reservation.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.TimeoutSeconds)*time.Second)
			defer cancel()
			if err := s.kv.Put(ctx, locationID, snapshot); err != nil {
				s.log.Warnf("degraded: capacity write-through %s: %v", locationID, err)
			}
		}()
	}
	return nil
}

// state returns the local counter for the location, seeding it on first
// sight from the remote store, the configured load figures, or the
// simulated source, in that order.
func (s *MemoryStore) state(ctx context.Context, loc model.Location) *locState {
	s.mu.Lock()
	if st, ok := s.states[loc.ID]; ok {
		s.mu.Unlock()
		return st
	}
	s.mu.Unlock()

	st := s.seed(ctx, loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.states[loc.ID]; ok {
		return existing
	}
	s.states[loc.ID] = st
	return st
}

func (s *MemoryStore) seed(ctx context.Context, loc model.Location) *locState {
	if s.kv != nil {
		ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
		info, found, err := s.kv.Get(ctx, loc.ID)
		if err != nil {
			s.log.Warnf("degraded: capacity read %s: %v", loc.ID, err)
		} else if found {
			return &locState{slots: info.AvailableSlots, operational: info.Operational, simulated: info.Simulated}
		}
	}
	if loc.MaxDailyLoad > 0 {
		slots := loc.MaxDailyLoad - loc.CurrentLoad
		if slots < 0 {
			slots = 0
		}
		return &locState{slots: slots, operational: loc.Operational()}
	}
	return &locState{
		slots:       s.source.Slots(loc.ID, loc.MaxDailyLoad),
		operational: loc.Operational(),
		simulated:   true,
	}
}
