// Package events defines the routing decision record and the sinks that
// receive it.
package events

import (
	"time"

	"github.com/conexio/leadrouter/core/model"
)

// DecisionRecord is the analytics artifact emitted for every routing
// attempt. Field names match the webhook wire format.
type DecisionRecord struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	LeadID             string    `json:"leadId"`
	LeadZIP            string    `json:"leadZip"`
	LeadScore          int       `json:"leadScore"`
	SelectedLocationID *string   `json:"selectedLocationId"`
	Outcome            string    `json:"outcome"`
	DistanceMiles      *float64  `json:"distanceMiles"`
	Source             string    `json:"source"`
}

// Sink receives routing decisions. Implementations must never block the
// caller and never propagate delivery failures; a lost record must not undo
// or delay the routing decision itself.
type Sink interface {
	Record(rec DecisionRecord)
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) Record(DecisionRecord) {}

// MultiSink fans a record out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink over the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// Record forwards the record to every sink. Each backend fails
// independently; none can affect the others or the caller.
func (m *MultiSink) Record(rec DecisionRecord) {
	for _, s := range m.Sinks {
		s.Record(rec)
	}
}

// DecisionEvent is published on the in-process bus for every routing
// decision, feeding dashboards and CRM sync without coupling them to the
// engine.
type DecisionEvent struct {
	Lead   model.Lead
	Result model.RoutingResult
	Record DecisionRecord
}

// DegradedEvent is published when an external data source failed and a
// fallback or sentinel value was substituted.
type DegradedEvent struct {
	Component string
	Key       string
	Err       error
}
