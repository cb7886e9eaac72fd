package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds logger settings.
type Config struct {
	// Level is the minimum severity emitted: trace, debug, info, warn or
	// error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level is known.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging: unknown level %q", c.Level)
	}
	return nil
}

// Apply sets the global log level from the configuration.
func Apply(c Config) error {
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("logging: unknown level %q", c.Level)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
