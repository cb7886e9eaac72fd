package sink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/infra/logger"
)

func testRecord() events.DecisionRecord {
	locID := "loc1"
	dist := 3.5
	return events.DecisionRecord{
		ID:                 "rec-1",
		Timestamp:          time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		LeadID:             "l1",
		LeadZIP:            "90210",
		LeadScore:          85,
		SelectedLocationID: &locID,
		Outcome:            "routed",
		DistanceMiles:      &dist,
		Source:             "facebook",
	}
}

func TestWebhookSinkDelivers(t *testing.T) {
	var mu sync.Mutex
	var got events.DecisionRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL}, logger.NopLogger{})
	s.Record(testRecord())
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "l1", got.LeadID)
	assert.Equal(t, "routed", got.Outcome)
	require.NotNil(t, got.SelectedLocationID)
	assert.Equal(t, "loc1", *got.SelectedLocationID)
	require.NotNil(t, got.DistanceMiles)
	assert.InDelta(t, 3.5, *got.DistanceMiles, 1e-9)
}

func TestWebhookSinkRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL, MaxRetries: 2, RetryBackoffMillis: 1}, logger.NopLogger{})
	s.Record(testRecord())
	s.Flush()
	assert.Equal(t, int64(2), calls.Load())
}

func TestWebhookSinkGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL, MaxRetries: 2, RetryBackoffMillis: 1}, logger.NopLogger{})
	s.Record(testRecord())
	s.Flush()
	// Initial attempt plus two retries, then the record is dropped.
	assert.Equal(t, int64(3), calls.Load())
}

func TestWebhookSinkNeverBlocksCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := NewWebhookSink(WebhookConfig{URL: srv.URL}, logger.NopLogger{})
	done := make(chan struct{})
	go func() {
		s.Record(testRecord())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a slow endpoint")
	}
}

func TestInfluxSinkWriteTimeoutConfigurable(t *testing.T) {
	s := NewInfluxSink(InfluxConfig{URL: "http://localhost:8086"}, logger.NopLogger{})
	assert.Equal(t, 5*time.Second, s.timeout)
	s.client.Close()

	s = NewInfluxSink(InfluxConfig{URL: "http://localhost:8086", TimeoutSeconds: 2}, logger.NopLogger{})
	assert.Equal(t, 2*time.Second, s.timeout)
	s.client.Close()
}

func TestInfluxFallbackOnBadHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"influxdb","status":"fail"}`))
	}))
	defer srv.Close()

	s := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL}, logger.NopLogger{})
	if _, ok := s.(events.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", s)
	}
}

func TestInfluxFallbackOnHealthyInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
	}))
	defer srv.Close()

	s := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL}, logger.NopLogger{})
	if _, ok := s.(*InfluxSink); !ok {
		t.Fatalf("expected InfluxSink, got %T", s)
	}
}
