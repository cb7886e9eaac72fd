// Package capacity defines live-load tracking for service locations.
package capacity

import (
	"context"
	"errors"
	"time"

	"github.com/conexio/leadrouter/core/model"
)

// ErrNoSlots is returned by Reserve when the location has no free slot,
// typically because a concurrent reservation won the race.
var ErrNoSlots = errors.New("capacity: no available slots")

// Info is a point-in-time capacity snapshot for one location.
type Info struct {
	HasCapacity    bool
	AvailableSlots int
	Operational    bool
	// Simulated marks snapshots synthesized in degraded mode, when neither
	// a remote store nor configured load figures were available.
	Simulated   bool
	LastUpdated time.Time
}

// Store exposes capacity reads and atomic slot reservations. Reads are
// best-effort and may be cached; Reserve is the single serialization point
// per location and must never oversubscribe. Daily load resets are owned by
// an external scheduler.
type Store interface {
	Capacity(ctx context.Context, loc model.Location) Info
	Reserve(ctx context.Context, locationID string) error
}
