// Package config defines the twingest configuration and how it is loaded.
package config

import (
	"errors"
	"time"
)

// Sentinel errors, usable with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite database file.
	DBPath string `koanf:"db_path"`

	// StaticDir holds the browser client, served at /. Empty disables it.
	StaticDir string `koanf:"static_dir"`

	// BindingsFile is an optional YAML bindings file applied to every
	// session. Empty selects the built-in IDE bindings.
	BindingsFile string `koanf:"bindings_file"`

	// FrameIntervalMS is the frame tick period driving continuous gestures.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// HistorySize caps the samples kept for the live stroke.
	HistorySize int `koanf:"history_size"`

	// TouchHistorySize caps the completed strokes kept per session.
	TouchHistorySize int `koanf:"touch_history_size"`

	// DefaultCooldownMS applies to gestures that set no cooldown.
	DefaultCooldownMS int `koanf:"default_cooldown_ms"`

	// MetricsEnabled exposes /metrics and records Prometheus metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8420",
		DBPath:            "twingest.db",
		StaticDir:         "web",
		FrameIntervalMS:   16,
		HistorySize:       100,
		TouchHistorySize:  10,
		DefaultCooldownMS: 0,
		MetricsEnabled:    true,
	}
}

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.Join(ErrInvalidConfig, errors.New("addr must not be empty"))
	case c.DBPath == "":
		return errors.Join(ErrInvalidConfig, errors.New("db_path must not be empty"))
	case c.FrameIntervalMS <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("frame_interval_ms must be positive"))
	case c.HistorySize < 3:
		return errors.Join(ErrInvalidConfig, errors.New("history_size must be at least 3"))
	case c.TouchHistorySize < 1:
		return errors.Join(ErrInvalidConfig, errors.New("touch_history_size must be at least 1"))
	case c.DefaultCooldownMS < 0:
		return errors.Join(ErrInvalidConfig, errors.New("default_cooldown_ms must not be negative"))
	}
	return nil
}
