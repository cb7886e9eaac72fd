// Package sink provides event sink backends for routing decisions. Every
// backend is best-effort: delivery failures are logged and never reach the
// routing caller.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/core/logger"
)

// WebhookConfig holds webhook delivery settings.
type WebhookConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	// TimeoutSeconds bounds each delivery attempt.
	TimeoutSeconds int `json:"timeout_seconds"`
	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries int `json:"max_retries"`
	// RetryBackoffMillis is the pause between attempts.
	RetryBackoffMillis int `json:"retry_backoff_millis"`
}

// SetDefaults applies sane defaults.
func (c *WebhookConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryBackoffMillis == 0 {
		c.RetryBackoffMillis = 250
	}
}

// WebhookSink POSTs decision records to a configured endpoint. Record
// returns immediately; delivery happens on a background goroutine with
// bounded retries.
type WebhookSink struct {
	cfg    WebhookConfig
	client *http.Client
	log    logger.Logger
	wg     sync.WaitGroup
}

// NewWebhookSink creates a sink for the configured endpoint.
func NewWebhookSink(cfg WebhookConfig, log logger.Logger) *WebhookSink {
	cfg.SetDefaults()
	return &WebhookSink{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:    log,
	}
}

// Record implements events.Sink. It never blocks or fails the caller.
func (s *WebhookSink) Record(rec events.DecisionRecord) {
	body, err := json.Marshal(rec)
	if err != nil {
		s.log.Errorf("webhook sink: encode %s: %v", rec.ID, err)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(rec.ID, body)
	}()
}

func (s *WebhookSink) deliver(id string, body []byte) {
	backoff := time.Duration(s.cfg.RetryBackoffMillis) * time.Millisecond
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
		}
		if err := s.post(body); err != nil {
			s.log.Warnf("webhook sink: attempt %d for %s: %v", attempt+1, id, err)
			continue
		}
		sinkDeliveries.WithLabelValues("webhook", "delivered").Inc()
		return
	}
	sinkDeliveries.WithLabelValues("webhook", "dropped").Inc()
	s.log.Errorf("webhook sink: dropping record %s after %d attempts", id, s.cfg.MaxRetries+1)
}

func (s *WebhookSink) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.TimeoutSeconds)*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Flush waits for in-flight deliveries. Intended for shutdown and tests.
func (s *WebhookSink) Flush() { s.wg.Wait() }
