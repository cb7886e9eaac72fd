package sink

import (
	"github.com/prometheus/client_golang/prometheus"
)

var sinkDeliveries *prometheus.CounterVec

// newCollectors creates new metric collectors.
func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_deliveries_total",
			Help: "Decision record deliveries by backend and status",
		},
		[]string{"sink", "status"},
	)
}

func init() {
	sinkDeliveries = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers sink metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(sinkDeliveries)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	sinkDeliveries = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
