// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/conexio/leadrouter/core/events"
	"github.com/conexio/leadrouter/core/model"
	"github.com/conexio/leadrouter/core/routing"
	"github.com/conexio/leadrouter/core/score"
	infracap "github.com/conexio/leadrouter/infra/capacity"
	infrageo "github.com/conexio/leadrouter/infra/geo"
	infralog "github.com/conexio/leadrouter/infra/logger"
	"github.com/conexio/leadrouter/infra/metrics"
	"github.com/conexio/leadrouter/infra/sink"
)

// Config is the root configuration document.
type Config struct {
	Routing   routing.Config    `json:"routing"`
	Score     score.Config      `json:"score"`
	Geo       infrageo.Config   `json:"geo"`
	Capacity  infracap.Config   `json:"capacity"`
	Sink      SinkConfig        `json:"sink"`
	Events    events.FeedConfig `json:"events"`
	Logging   infralog.Config   `json:"logging"`
	Metrics   metrics.Config    `json:"metrics"`
	Locations []LocationConfig  `json:"locations"`
}

// SinkConfig selects the decision sink backends.
type SinkConfig struct {
	Webhook sink.WebhookConfig `json:"webhook"`
	Influx  sink.InfluxConfig  `json:"influx"`
}

// LocationConfig declares one service location. Locations are owned by
// configuration; only their live load changes at runtime.
type LocationConfig struct {
	ID           string `json:"id"`
	ZIP          string `json:"zip"`
	Tier         string `json:"tier"`
	Status       string `json:"status"`
	CurrentLoad  int    `json:"current_load"`
	MaxDailyLoad int    `json:"max_daily_load"`
	OpenHour     int    `json:"open_hour"`
	CloseHour    int    `json:"close_hour"`
}

// Model converts the declaration to the domain type.
func (l LocationConfig) Model() model.Location {
	tier := model.Tier(l.Tier)
	if tier == "" {
		tier = model.TierLowTraffic
	}
	status := model.Status(l.Status)
	if status == "" {
		status = model.StatusActive
	}
	return model.Location{
		ID:           l.ID,
		ZIP:          l.ZIP,
		Tier:         tier,
		Status:       status,
		CurrentLoad:  l.CurrentLoad,
		MaxDailyLoad: l.MaxDailyLoad,
		OpenHour:     l.OpenHour,
		CloseHour:    l.CloseHour,
	}
}

func (l LocationConfig) validate() error {
	if l.ID == "" {
		return fmt.Errorf("location without id")
	}
	if !model.ValidZIP(l.ZIP) {
		return fmt.Errorf("location %s: zip %q is not 5 digits", l.ID, l.ZIP)
	}
	if l.MaxDailyLoad < 0 || l.CurrentLoad < 0 {
		return fmt.Errorf("location %s: negative load figures", l.ID)
	}
	return nil
}

// Locations returns the configured locations as domain types.
func (c *Config) LocationModels() []model.Location {
	out := make([]model.Location, 0, len(c.Locations))
	for _, l := range c.Locations {
		out = append(out, l.Model())
	}
	return out
}

// Load reads the configuration file, applies LR_ environment overrides,
// defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("LR_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Routing.SetDefaults()
	cfg.Score.SetDefaults()
	cfg.Geo.SetDefaults()
	cfg.Capacity.SetDefaults()
	cfg.Sink.Webhook.SetDefaults()
	cfg.Sink.Influx.SetDefaults()
	cfg.Events.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Routing.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Score.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Geo.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Events.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	for _, l := range cfg.Locations {
		if err := l.validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
