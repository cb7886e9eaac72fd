// Package score computes a bounded priority score for inbound leads.
package score

import (
	"fmt"
	"math"
	"time"

	"github.com/conexio/leadrouter/core/model"
)

// Config holds the tunable scoring table. Multipliers and bonuses are
// configuration so the scoring model can be adjusted without code changes.
type Config struct {
	// SourceMultipliers maps an acquisition channel to its multiplier.
	// Channels absent from the table use 1.0.
	SourceMultipliers map[string]float64 `json:"source_multipliers"`
	// DefaultSignal replaces a missing raw quality signal.
	DefaultSignal float64 `json:"default_signal"`
	// ContactBonus is added when phone, email and name are all present.
	ContactBonus float64 `json:"contact_bonus"`
	// BusinessHoursBonus is added when the lead is scored inside the
	// configured business day.
	BusinessHoursBonus float64 `json:"business_hours_bonus"`
	// OpenHour and CloseHour bound the business day, 24h clock.
	OpenHour  int `json:"open_hour"`
	CloseHour int `json:"close_hour"`
}

// SetDefaults applies the default scoring table.
func (c *Config) SetDefaults() {
	if c.SourceMultipliers == nil {
		c.SourceMultipliers = map[string]float64{
			"referral": 1.2,
			"facebook": 1.1,
			"google":   1.05,
			"website":  1.0,
			"walk-in":  0.9,
		}
	}
	if c.DefaultSignal == 0 {
		c.DefaultSignal = 50
	}
	if c.ContactBonus == 0 {
		c.ContactBonus = 10
	}
	if c.BusinessHoursBonus == 0 {
		c.BusinessHoursBonus = 5
	}
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour = 9
		c.CloseHour = 18
	}
}

// Validate checks the table is sound.
func (c Config) Validate() error {
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("score: invalid business hours %d-%d", c.OpenHour, c.CloseHour)
	}
	for src, m := range c.SourceMultipliers {
		if m < 0 {
			return fmt.Errorf("score: negative multiplier %v for source %q", m, src)
		}
	}
	return nil
}

// Scorer computes lead priority scores from the configured table.
type Scorer struct {
	cfg Config
}

// NewScorer returns a Scorer using cfg with defaults applied.
func NewScorer(cfg Config) *Scorer {
	cfg.SetDefaults()
	return &Scorer{cfg: cfg}
}

// Score returns the lead priority in [0,100]. It is a pure function of the
// lead and the supplied time; callers inject the clock.
func (s *Scorer) Score(lead model.Lead, now time.Time) int {
	signal := s.cfg.DefaultSignal
	if lead.Score != nil {
		signal = float64(*lead.Score)
	}

	mult := 1.0
	if m, ok := s.cfg.SourceMultipliers[lead.Source]; ok {
		mult = m
	}
	v := signal * mult

	if lead.ContactComplete() {
		v += s.cfg.ContactBonus
	}
	if h := now.Hour(); h >= s.cfg.OpenHour && h < s.cfg.CloseHour {
		v += s.cfg.BusinessHoursBonus
	}

	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
