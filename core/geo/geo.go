// Package geo defines postal-code resolution and great-circle distance.
package geo

import (
	"context"
	"math"

	"github.com/conexio/leadrouter/core/model"
)

// EarthRadiusMiles is the mean Earth radius used by Distance.
const EarthRadiusMiles = 3959.0

// SentinelDistance is returned for pairs involving an unresolved postal
// code. It exceeds any plausible service radius so such candidates fall out
// of radius filtering without special-casing call sites.
const SentinelDistance = 999.0

// Resolver resolves a postal code to a coordinate. The boolean is false when
// the code could not be resolved; resolvers never surface provider errors.
type Resolver interface {
	Resolve(ctx context.Context, zip string) (model.Coordinate, bool)
}

// Distance returns the haversine distance between a and b in miles.
func Distance(a, b model.Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
