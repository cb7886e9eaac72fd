// Package routing implements the lead-to-location assignment engine.
//
// A route request validates the lead, scores it, resolves the distance to
// every candidate location, filters by service radius and live capacity,
// applies the selection policy, reserves a slot and records the decision.
// Provider failures are recovered locally with sentinels; the only outcomes
// surfaced to callers are the structured RoutingResult variants.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conexio/leadrouter/core/capacity"
	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/core/geo"
	"github.com/conexio/leadrouter/core/logger"
	"github.com/conexio/leadrouter/core/model"
	"github.com/conexio/leadrouter/core/score"
)

// Engine orchestrates geo resolution, scoring, capacity checks and slot
// reservation for inbound leads. Multiple leads may be routed concurrently;
// the capacity store owns the only required serialization.
type Engine struct {
	cfg      Config
	resolver geo.Resolver
	store    capacity.Store
	scorer   *score.Scorer
	sink     events.Sink
	feed     *events.Feed
	log      logger.Logger
	now      func() time.Time
}

// NewEngine creates an Engine. sink and feed may be nil; a nil clock defaults
// to time.Now.
func NewEngine(cfg Config, resolver geo.Resolver, store capacity.Store, scorer *score.Scorer, sink events.Sink, feed *events.Feed, log logger.Logger, clock func() time.Time) (*Engine, error) {
	if resolver == nil || store == nil || scorer == nil || log == nil {
		return nil, fmt.Errorf("routing: nil parameter provided to NewEngine")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		scorer:   scorer,
		sink:     sink,
		feed:     feed,
		log:      log,
		now:      clock,
	}, nil
}

// Route assigns the lead to one of the candidate locations and returns the
// decision. Re-invoking with the same input after a failure is always safe;
// no past decision is ever mutated. Cancellation of ctx beyond the
// per-call timeouts is not guaranteed.
func (e *Engine) Route(ctx context.Context, lead model.Lead, locations []model.Location) model.RoutingResult {
	start := e.now()
	finish := func(res model.RoutingResult, finalScore int) model.RoutingResult {
		routingOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		routeLatency.WithLabelValues(string(res.Outcome)).Observe(time.Since(start).Seconds())
		e.emit(lead, finalScore, res)
		return res
	}

	if err := lead.Validate(); err != nil {
		e.log.Warnf("rejecting lead %s: %v", lead.ID, err)
		return finish(model.Failed(model.ErrInvalidInput, err.Error()), 0)
	}
	if len(locations) == 0 {
		return finish(model.Failed(model.ErrNoLocations, "no candidate locations supplied"), 0)
	}

	// Bound every external call made on behalf of this request.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.RequestTimeoutSeconds)*time.Second)
	defer cancel()

	finalScore := e.scorer.Score(lead, e.now())
	highPriority := finalScore >= e.cfg.HighScoreThreshold

	cands := e.gather(ctx, lead, locations)

	nearby := inRadius(cands, e.cfg.ServiceRadiusMiles)
	if len(nearby) == 0 {
		e.log.Warnf("NO_NEARBY_LOCATIONS lead=%s zip=%s radius=%.0f", lead.ID, lead.ZIP, e.cfg.ServiceRadiusMiles)
		msg := fmt.Sprintf("no location within %.0f miles of %s; queue for manual follow-up", e.cfg.ServiceRadiusMiles, lead.ZIP)
		return finish(model.Failed(model.ErrOutOfRange, msg), finalScore)
	}
	sortByDistance(nearby)

	avail := available(nearby)
	if len(avail) == 0 {
		if !e.cfg.fallbackEnabled() {
			return finish(model.Failed(model.ErrNoCapacity, "all in-range locations are at capacity"), finalScore)
		}
		open := operational(nearby)
		if len(open) == 0 {
			return finish(model.Failed(model.ErrNoCapacity, "no operational location in range"), finalScore)
		}
		fb := pickFallback(open)
		fallbackPicks.Inc()
		e.log.Infof("waitlisting lead %s on %s (%d slots pending)", lead.ID, fb.loc.ID, fb.info.AvailableSlots)
		return finish(model.Waitlisted(fb.loc, "no immediate capacity"), finalScore)
	}

	chosen := pick(avail, highPriority)
	if err := e.store.Reserve(ctx, chosen.loc.ID); err != nil {
		if !errors.Is(err, capacity.ErrNoSlots) {
			e.log.Errorf("reserve %s: %v", chosen.loc.ID, err)
			return finish(model.Failed(model.ErrSystemError, fmt.Sprintf("reservation failed: %v", err)), finalScore)
		}
		// Lost the race to a concurrent caller; retry once among the rest.
		reservationRaces.Inc()
		remaining := without(avail, chosen.loc.ID)
		if len(remaining) == 0 {
			return finish(model.Failed(model.ErrSystemError, "reservation race exhausted all candidates"), finalScore)
		}
		chosen = pick(remaining, highPriority)
		if err := e.store.Reserve(ctx, chosen.loc.ID); err != nil {
			return finish(model.Failed(model.ErrSystemError, "reservation race exhausted retries"), finalScore)
		}
	}

	reason := e.reason(chosen, highPriority)
	e.log.Infof("routed lead %s to %s (%.1f mi, score %d)", lead.ID, chosen.loc.ID, chosen.distance, finalScore)
	return finish(model.Routed(chosen.loc, chosen.distance, reason, highPriority), finalScore)
}

// gather resolves distance and capacity for every candidate concurrently.
// All results are collected before filtering; there is no early return on
// partial data.
func (e *Engine) gather(ctx context.Context, lead model.Lead, locations []model.Location) []candidate {
	origin, originOK := e.resolver.Resolve(ctx, lead.ZIP)
	if !originOK {
		degradedLookups.WithLabelValues("geo").Inc()
		e.log.Warnf("degraded: lead zip %s unresolved", lead.ZIP)
		if e.feed != nil {
			e.feed.Degraded.Publish(events.DegradedEvent{Component: "geo", Key: lead.ZIP})
		}
	}

	cands := make([]candidate, len(locations))
	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc model.Location) {
			defer wg.Done()
			dist := geo.SentinelDistance
			if originOK {
				if dest, ok := e.resolver.Resolve(ctx, loc.ZIP); ok {
					dist = geo.Distance(origin, dest)
				}
			}
			cands[i] = candidate{loc: loc, distance: dist, info: e.store.Capacity(ctx, loc)}
		}(i, loc)
	}
	wg.Wait()
	return cands
}

func (e *Engine) reason(c candidate, highPriority bool) string {
	switch {
	case highPriority:
		return "closest location for high-priority lead"
	case c.loc.Tier == model.TierLowTraffic:
		return "low-traffic location preferred"
	default:
		return "closest available location"
	}
}

// emit records the decision to the sink and the in-process feed. Both paths
// are fire-and-forget; neither can fail or block the routing caller.
func (e *Engine) emit(lead model.Lead, finalScore int, res model.RoutingResult) {
	rec := events.DecisionRecord{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		LeadID:    lead.ID,
		LeadZIP:   lead.ZIP,
		LeadScore: finalScore,
		Outcome:   string(res.Outcome),
		Source:    lead.Source,
	}
	if loc := res.SelectedLocation(); loc != nil {
		id := loc.ID
		rec.SelectedLocationID = &id
	}
	if res.Outcome == model.OutcomeRouted {
		d := res.DistanceMiles
		rec.DistanceMiles = &d
	}
	e.sink.Record(rec)
	if e.feed != nil {
		e.feed.Decisions.Publish(events.DecisionEvent{Lead: lead, Result: res, Record: rec})
	}
}
