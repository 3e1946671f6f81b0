package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1lightwave/k1-dt/internal/api"
	"github.com/k1lightwave/k1-dt/internal/twin"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "k1-dtd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, api.DefaultHost, cfg.Listen.Host)
	assert.Equal(t, api.DefaultPort, cfg.Listen.Port)
	assert.Equal(t, twin.DefaultAssetsDir, cfg.AssetsDir)
	assert.Empty(t, cfg.Journal.Path, "journal disabled by default")
	assert.False(t, cfg.AutoTick.Enabled, "auto-tick disabled by default")
	assert.Equal(t, twin.DefaultRunInterval, cfg.AutoTick.Interval.Std())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyFileReturnsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
listen:
  host: 127.0.0.1
  port: 9100
assets_dir: /var/lib/k1/assets
journal:
  path: /var/lib/k1/journal.db
  snapshot_every: 2s
auto_tick:
  enabled: true
  interval: 250ms
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Listen.Host)
	assert.Equal(t, 9100, cfg.Listen.Port)
	assert.Equal(t, "/var/lib/k1/assets", cfg.AssetsDir)
	assert.Equal(t, "/var/lib/k1/journal.db", cfg.Journal.Path)
	assert.Equal(t, 2*time.Second, cfg.Journal.SnapshotEvery.Std())
	assert.True(t, cfg.AutoTick.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.AutoTick.Interval.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
listen:
  port: 9100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Listen.Port)
	assert.Equal(t, api.DefaultHost, cfg.Listen.Host, "absent fields keep their defaults")
	assert.Equal(t, twin.DefaultAssetsDir, cfg.AssetsDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicitly named config file must exist")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "listne:\n  port: 9100\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
journal:
  path: j.db
  snapshot_every: quickly
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PortOutOfRange(t *testing.T) {
	path := writeConfig(t, `
listen:
  port: 70000
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestValidate_AutoTickNeedsInterval(t *testing.T) {
	cfg := Default()
	cfg.AutoTick = AutoTick{Enabled: true, Interval: 0}

	assert.Error(t, cfg.Validate())
}

func TestValidate_JournalNeedsCadence(t *testing.T) {
	cfg := Default()
	cfg.Journal = Journal{Path: "j.db", SnapshotEvery: 0}

	assert.Error(t, cfg.Validate())
}

func TestConfig_Level(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		cfg := Default()
		cfg.LogLevel = tc.in

		level, err := cfg.Level()
		require.NoError(t, err, "level %q", tc.in)
		assert.Equal(t, tc.want, level, "level %q", tc.in)
	}

	cfg := Default()
	cfg.LogLevel = "loud"
	_, err := cfg.Level()
	assert.Error(t, err)
}
