package sink

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/core/logger"
)

// InfluxConfig holds analytics store settings.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
	// TimeoutSeconds bounds each point write.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *InfluxConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
}

// InfluxSink writes routing decisions to an InfluxDB bucket using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
	wg       sync.WaitGroup
}

// NewInfluxSink creates a sink for the configured instance.
func NewInfluxSink(cfg InfluxConfig, log logger.Logger) *InfluxSink {
	cfg.SetDefaults()
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:      log,
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when
// the health check fails, so a down analytics store degrades silently.
func NewInfluxSinkWithFallback(cfg InfluxConfig, log logger.Logger) events.Sink {
	sink := NewInfluxSink(cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			log.Errorf("influx health check error: %v", err)
		} else {
			log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return events.NopSink{}
	}
	return sink
}

// Record implements events.Sink. The point is written on a background
// goroutine with a bounded timeout; failures are logged, never propagated.
func (s *InfluxSink) Record(rec events.DecisionRecord) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		p := write.NewPointWithMeasurement("routing_decision").
			AddTag("outcome", rec.Outcome).
			AddTag("source", rec.Source).
			AddTag("lead_zip", rec.LeadZIP).
			AddField("lead_score", rec.LeadScore).
			SetTime(rec.Timestamp)
		if rec.SelectedLocationID != nil {
			p.AddTag("location_id", *rec.SelectedLocationID)
		}
		if rec.DistanceMiles != nil {
			p.AddField("distance_miles", *rec.DistanceMiles)
		}
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			sinkDeliveries.WithLabelValues("influx", "dropped").Inc()
			s.log.Warnf("influx sink: write %s: %v", rec.ID, err)
			return
		}
		sinkDeliveries.WithLabelValues("influx", "delivered").Inc()
	}()
}

// Flush waits for in-flight writes. Intended for shutdown and tests.
func (s *InfluxSink) Flush() { s.wg.Wait() }

// Close flushes and releases the client.
func (s *InfluxSink) Close() {
	s.wg.Wait()
	s.client.Close()
}
