// Package config loads the daemon configuration file.
//
// Configuration is optional: an empty path yields the built-in
// defaults, and every field in the file overrides one default. The CLI
// binary reads no configuration at all; only the daemon does.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/k1lightwave/k1-dt/internal/api"
	"github.com/k1lightwave/k1-dt/internal/journal"
	"github.com/k1lightwave/k1-dt/internal/twin"
)

// Duration wraps time.Duration so YAML files can use Go duration
// strings ("5s", "200ms").
type Duration time.Duration

// UnmarshalYAML parses a duration string node.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Listen is the HTTP bind address.
type Listen struct {
	Host string `yaml:"host"`

	// Port 0 binds an ephemeral port; tests rely on that.
	Port int `yaml:"port"`
}

// Journal configures the observation journal.
type Journal struct {
	// Path is the SQLite file. Empty disables journaling entirely.
	Path string `yaml:"path"`

	// SnapshotEvery is the cadence of periodic state snapshots.
	SnapshotEvery Duration `yaml:"snapshot_every"`
}

// AutoTick configures the daemon-driven advance loop.
type AutoTick struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// Config is the full daemon configuration.
type Config struct {
	Listen    Listen   `yaml:"listen"`
	AssetsDir string   `yaml:"assets_dir"`
	Journal   Journal  `yaml:"journal"`
	AutoTick  AutoTick `yaml:"auto_tick"`
	LogLevel  string   `yaml:"log_level"`
}

// Default returns the built-in configuration: serve 0.0.0.0:8000 off
// the standard assets directory, journal disabled, auto-tick disabled.
func Default() Config {
	return Config{
		Listen: Listen{
			Host: api.DefaultHost,
			Port: api.DefaultPort,
		},
		AssetsDir: twin.DefaultAssetsDir,
		Journal: Journal{
			SnapshotEvery: Duration(journal.DefaultSnapshotEvery),
		},
		AutoTick: AutoTick{
			Interval: Duration(twin.DefaultRunInterval),
		},
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file over the defaults. An empty
// path returns the defaults untouched; a named file must exist and
// parse. Unknown fields are rejected to catch typos.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		// An empty file is a valid "all defaults" config.
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks field ranges. Called by Load; the daemon also calls
// it after applying flag overrides.
func (c Config) Validate() error {
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	if c.AssetsDir == "" {
		return fmt.Errorf("assets_dir must not be empty")
	}
	if c.Journal.Path != "" && c.Journal.SnapshotEvery.Std() <= 0 {
		return fmt.Errorf("journal.snapshot_every must be positive")
	}
	if c.AutoTick.Enabled && c.AutoTick.Interval.Std() <= 0 {
		return fmt.Errorf("auto_tick.interval must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps log_level onto a slog level.
func (c Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
}
