package score

import (
	"testing"
	"time"

	"github.com/conexio/leadrouter/core/model"
)

func intp(v int) *int { return &v }

var businessNoon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
var afterHours = time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(Config{})
	lead := model.Lead{ID: "l1", Score: intp(70), Source: "google", Phone: "p", Email: "e", Name: "n"}
	first := s.Score(lead, businessNoon)
	for i := 0; i < 5; i++ {
		if got := s.Score(lead, businessNoon); got != first {
			t.Fatalf("score changed between calls: %d vs %d", got, first)
		}
	}
}

func TestScoreDefaultSignal(t *testing.T) {
	s := NewScorer(Config{})
	// No raw signal, unknown source, incomplete contact, after hours:
	// 50 * 1.0 with no bonuses.
	lead := model.Lead{ID: "l1", Source: "billboard"}
	if got := s.Score(lead, afterHours); got != 50 {
		t.Fatalf("score = %d, want 50", got)
	}
}

func TestScoreSourceOrdering(t *testing.T) {
	s := NewScorer(Config{})
	base := model.Lead{ID: "l1", Score: intp(60)}
	order := []string{"referral", "facebook", "google", "website", "walk-in"}
	prev := 101
	for _, src := range order {
		lead := base
		lead.Source = src
		got := s.Score(lead, afterHours)
		if got >= prev {
			t.Fatalf("source %s scored %d, not below previous %d", src, got, prev)
		}
		prev = got
	}
}

func TestScoreBonuses(t *testing.T) {
	s := NewScorer(Config{})
	lead := model.Lead{ID: "l1", Score: intp(60), Source: "website"}
	bare := s.Score(lead, afterHours)

	lead.Phone, lead.Email, lead.Name = "555", "a@b.c", "Ada"
	if got := s.Score(lead, afterHours); got != bare+10 {
		t.Fatalf("contact bonus: got %d, want %d", got, bare+10)
	}
	if got := s.Score(lead, businessNoon); got != bare+15 {
		t.Fatalf("contact+hours bonus: got %d, want %d", got, bare+15)
	}
}

func TestScoreClamped(t *testing.T) {
	s := NewScorer(Config{})
	hot := model.Lead{ID: "l1", Score: intp(100), Source: "referral", Phone: "p", Email: "e", Name: "n"}
	if got := s.Score(hot, businessNoon); got != 100 {
		t.Fatalf("score = %d, want clamp at 100", got)
	}
	cold := model.Lead{ID: "l2", Score: intp(0), Source: "walk-in"}
	if got := s.Score(cold, afterHours); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestConfigValidate(t *testing.T) {
	bad := Config{OpenHour: 20, CloseHour: 8}
	if err := bad.Validate(); err == nil {
		t.Fatal("inverted business hours accepted")
	}
	neg := Config{CloseHour: 18, SourceMultipliers: map[string]float64{"x": -1}}
	if err := neg.Validate(); err == nil {
		t.Fatal("negative multiplier accepted")
	}
}
