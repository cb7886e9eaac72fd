package events

import (
	"fmt"

	"github.com/conexio/leadrouter/internal/eventbus"
)

// FeedConfig holds in-process event stream settings.
type FeedConfig struct {
	// BufferSize is the per-subscriber channel capacity. Slow subscribers
	// miss events past this depth rather than blocking the engine.
	BufferSize int `json:"buffer_size"`
}

// SetDefaults applies sane defaults.
func (c *FeedConfig) SetDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = eventbus.DefaultBuffer
	}
}

// Validate checks the buffer size is usable.
func (c FeedConfig) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("events: negative buffer size %d", c.BufferSize)
	}
	return nil
}

// Feed bundles the in-process event streams fed by the routing engine:
// one decision per routing attempt, plus degraded-mode notices when an
// external data source had to be replaced by a fallback.
type Feed struct {
	Decisions *eventbus.Bus[DecisionEvent]
	Degraded  *eventbus.Bus[DegradedEvent]
}

// NewFeed creates a Feed with the configured subscriber buffer size.
func NewFeed(cfg FeedConfig) *Feed {
	cfg.SetDefaults()
	return &Feed{
		Decisions: eventbus.New[DecisionEvent](cfg.BufferSize),
		Degraded:  eventbus.New[DegradedEvent](cfg.BufferSize),
	}
}

// Close closes both streams.
func (f *Feed) Close() {
	f.Decisions.Close()
	f.Degraded.Close()
}
