package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonehub/zonehub-go/pkg/hub"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zonehub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig([]string{"-host", "192.0.2.10"})
	require.NoError(t, err)

	assert.Equal(t, "192.0.2.10", cfg.Host)
	assert.Equal(t, hub.DefaultPort, cfg.Port)
	assert.Equal(t, time.Second, cfg.MinBackoff)
	assert.Equal(t, 900*time.Second, cfg.MaxBackoff)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Interactive)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
host: hub.local
port: 2113
read_timeout: 90s
min_backoff: 2s
max_backoff: 5m
backoff_jitter: 0.2
log_level: debug
log_format: json
metrics_addr: ":9120"
protocol_log: /tmp/hub.zlog
`)

	cfg, err := loadConfig([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "hub.local", cfg.Host)
	assert.Equal(t, 2113, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.MinBackoff)
	assert.Equal(t, 5*time.Minute, cfg.MaxBackoff)
	assert.Equal(t, 0.2, cfg.BackoffJitter)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9120", cfg.MetricsAddr)
	assert.Equal(t, "/tmp/hub.zlog", cfg.ProtocolLog)

	// Unset keys keep their defaults.
	assert.Equal(t, hub.DefaultConfig("").ConnectTimeout, cfg.ConnectTimeout)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "host: hub.local\nport: 2113\nlog_level: warn\n")

	cfg, err := loadConfig([]string{"-port", "4000", "-config", path, "-interactive"})
	require.NoError(t, err)

	assert.Equal(t, "hub.local", cfg.Host)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Interactive)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "read config")

	path := writeConfig(t, "port: [not a number\n")
	_, err = loadConfig([]string{"-config", path})
	assert.ErrorContains(t, err, "parse config")

	_, err = loadConfig([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestHubConfig(t *testing.T) {
	cfg, err := loadConfig([]string{"-host", "hub.local", "-min-backoff", "50ms", "-max-backoff", "1s"})
	require.NoError(t, err)

	hc := cfg.hubConfig()
	require.NoError(t, hc.Validate())
	assert.Equal(t, "hub.local", hc.Host)
	assert.Equal(t, 50*time.Millisecond, hc.MinBackoff)
	assert.Equal(t, time.Second, hc.MaxBackoff)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	h, err := newHandler(&buf, "json", slog.LevelInfo)
	require.NoError(t, err)
	slog.New(h).Info("hello", "zone", 3)
	assert.Contains(t, buf.String(), `"zone":3`)

	buf.Reset()
	h, err = newHandler(&buf, "text", slog.LevelWarn)
	require.NoError(t, err)
	slog.New(h).Info("dropped")
	assert.Empty(t, buf.String())

	_, err = newHandler(&buf, "xml", slog.LevelInfo)
	assert.ErrorIs(t, err, errUnknownLogFormat)
}
