// Package config loads fleetdeck's dashboard configuration from
// ~/.fleetdeck/config.toml with environment overrides and explicit defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Defaults applied when the config file or a field is absent.
const (
	DefaultServerURL = "ws://localhost:8765/ws"
	DefaultLogCap    = 500
	DefaultViewMode  = "user"
)

// Config is the dashboard configuration.
type Config struct {
	// ServerURL is the orchestrator's telemetry websocket endpoint.
	ServerURL string `toml:"server_url"`

	// APIBaseURL is the orchestrator's REST base URL for roster/model/rate
	// lookups. Empty derives it from ServerURL.
	APIBaseURL string `toml:"api_base_url"`

	// LogCapacity bounds the rolling activity log.
	LogCapacity int `toml:"log_capacity"`

	// ViewMode is the feed's initial mode: "user" or "debug".
	ViewMode string `toml:"view_mode"`

	// HiddenEvents extends the built-in set of event types hidden from the
	// user view.
	HiddenEvents []string `toml:"hidden_events"`

	// OfficeMapPath points at an optional YAML override for the
	// office-to-agent table.
	OfficeMapPath string `toml:"office_map"`
}

// Dir returns the fleetdeck config directory (~/.fleetdeck).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fleetdeck")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config at path, fills defaults, and applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Config{
		ServerURL:   DefaultServerURL,
		LogCapacity: DefaultLogCap,
		ViewMode:    DefaultViewMode,
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path, not event data
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("FLEETDECK_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("FLEETDECK_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}

	return cfg.normalize()
}

// normalize clamps fields back to usable values after file/env merging.
func (c Config) normalize() (Config, error) {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.LogCapacity < 1 {
		c.LogCapacity = DefaultLogCap
	}
	switch c.ViewMode {
	case "user", "debug":
	case "":
		c.ViewMode = DefaultViewMode
	default:
		return Config{}, fmt.Errorf("config: view_mode must be \"user\" or \"debug\", got %q", c.ViewMode)
	}
	return c, nil
}
