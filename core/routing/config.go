package routing

import "fmt"

// Config defines routing policy settings. All thresholds are externally
// supplied, never hardcoded in the selection logic.
type Config struct {
	// ServiceRadiusMiles bounds how far a lead may be routed.
	ServiceRadiusMiles float64 `json:"service_radius_miles"`
	// HighScoreThreshold marks leads eligible for closest-location routing
	// regardless of tier.
	HighScoreThreshold int `json:"high_score_threshold"`
	// FallbackEnabled allows waitlisting on a full location instead of
	// dropping the lead. Defaults to true when unset.
	FallbackEnabled *bool `json:"fallback_enabled"`
	// RequestTimeoutSeconds bounds every external call made on behalf of a
	// route request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.ServiceRadiusMiles == 0 {
		c.ServiceRadiusMiles = 25
	}
	if c.HighScoreThreshold == 0 {
		c.HighScoreThreshold = 80
	}
	if c.FallbackEnabled == nil {
		on := true
		c.FallbackEnabled = &on
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 5
	}
}

// Validate checks the policy is sound.
func (c Config) Validate() error {
	if c.ServiceRadiusMiles < 0 {
		return fmt.Errorf("routing: negative service radius")
	}
	if c.HighScoreThreshold < 0 || c.HighScoreThreshold > 100 {
		return fmt.Errorf("routing: high score threshold %d outside [0,100]", c.HighScoreThreshold)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("routing: negative request timeout")
	}
	return nil
}

func (c Config) fallbackEnabled() bool {
	return c.FallbackEnabled == nil || *c.FallbackEnabled
}
