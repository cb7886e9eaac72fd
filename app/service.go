// Package app wires the configuration into a runnable routing service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/conexio/leadrouter/config"
	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/core/model"
	"github.com/conexio/leadrouter/core/routing"
	"github.com/conexio/leadrouter/core/score"
	infracap "github.com/conexio/leadrouter/infra/capacity"
	infrageo "github.com/conexio/leadrouter/infra/geo"
	"github.com/conexio/leadrouter/infra/logger"
	"github.com/conexio/leadrouter/infra/metrics"
	"github.com/conexio/leadrouter/infra/sink"
)

// Service owns the routing engine and its collaborators.
type Service struct {
	Engine    *routing.Engine
	Locations []model.Location

	cfg     *config.Config
	feed    *events.Feed
	log     logger.Logger
	kv      *infracap.RedisKV
	webhook *sink.WebhookSink
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Apply(cfg.Logging); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	geoTimeout := time.Duration(cfg.Geo.TimeoutSeconds) * time.Second
	primary := infrageo.NewHTTPProvider("primary", cfg.Geo.PrimaryURL, geoTimeout)
	var secondary infrageo.Provider
	if cfg.Geo.SecondaryURL != "" {
		secondary = infrageo.NewHTTPProvider("secondary", cfg.Geo.SecondaryURL, geoTimeout)
	}
	resolver := infrageo.NewCachedResolver(cfg.Geo, primary, secondary, logger.New("geo"))

	var kv *infracap.RedisKV
	if cfg.Capacity.Redis.Enabled {
		var err error
		kv, err = infracap.NewRedisKV(cfg.Capacity.Redis)
		if err != nil {
			// Degraded mode: capacity falls back to configured loads.
			logg.Warnf("capacity redis unavailable, continuing without: %v", err)
			kv = nil
		}
	}
	var backend infracap.KV
	if kv != nil {
		backend = kv
	}
	store := infracap.NewMemoryStore(cfg.Capacity, backend, nil, logger.New("capacity"), nil)

	var sinks []events.Sink
	var webhook *sink.WebhookSink
	if cfg.Sink.Webhook.Enabled {
		webhook = sink.NewWebhookSink(cfg.Sink.Webhook, logger.New("webhook-sink"))
		sinks = append(sinks, webhook)
	}
	if cfg.Sink.Influx.Enabled {
		sinks = append(sinks, sink.NewInfluxSinkWithFallback(cfg.Sink.Influx, logger.New("influx-sink")))
	}
	var decisionSink events.Sink = events.NopSink{}
	if len(sinks) == 1 {
		decisionSink = sinks[0]
	} else if len(sinks) > 1 {
		decisionSink = events.NewMultiSink(sinks...)
	}

	feed := events.NewFeed(cfg.Events)
	engine, err := routing.NewEngine(cfg.Routing, resolver, store, score.NewScorer(cfg.Score), decisionSink, feed, logger.New("routing-engine"), nil)
	if err != nil {
		return nil, fmt.Errorf("routing engine: %w", err)
	}

	return &Service{
		Engine:    engine,
		Locations: cfg.LocationModels(),
		cfg:       cfg,
		feed:      feed,
		log:       logg,
		kv:        kv,
		webhook:   webhook,
	}, nil
}

// Route assigns a lead against the configured locations.
func (s *Service) Route(ctx context.Context, lead model.Lead) model.RoutingResult {
	return s.Engine.Route(ctx, lead, s.Locations)
}

// Subscribe exposes the in-process decision feed.
func (s *Service) Subscribe() <-chan events.DecisionEvent { return s.feed.Decisions.Subscribe() }

// Degraded exposes the degraded-mode notice feed.
func (s *Service) Degraded() <-chan events.DegradedEvent { return s.feed.Degraded.Subscribe() }

// Run serves observability endpoints until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		s.log.Infof("prometheus metrics on %s", s.cfg.Metrics.PrometheusAddr)
		return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr)
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.webhook != nil {
		s.webhook.Flush()
	}
	s.feed.Close()
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}
