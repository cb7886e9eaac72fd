package routing

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	routeLatency     *prometheus.HistogramVec
	routingOutcomes  *prometheus.CounterVec
	reservationRaces prometheus.Counter
	fallbackPicks    prometheus.Counter
	degradedLookups  *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_route_latency_seconds",
			Help:    "Latency of a full routing attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	out := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_routed_total",
			Help: "Routing attempts by outcome",
		},
		[]string{"outcome"},
	)
	races := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_races_total",
			Help: "Slot reservations lost to a concurrent caller",
		},
	)
	fb := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fallback_selections_total",
			Help: "Leads waitlisted on an over-capacity location",
		},
	)
	deg := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_mode_total",
			Help: "External data sources replaced by a fallback or sentinel",
		},
		[]string{"component"},
	)
	return lat, out, races, fb, deg
}

func init() {
	routeLatency, routingOutcomes, reservationRaces, fallbackPicks, degradedLookups = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers routing metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(routeLatency, routingOutcomes, reservationRaces, fallbackPicks, degradedLookups)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	routeLatency, routingOutcomes, reservationRaces, fallbackPicks, degradedLookups = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
