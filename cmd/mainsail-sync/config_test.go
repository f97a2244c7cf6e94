package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mainsail-sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig([]string{"-host", "voron.local"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "voron.local", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat)
	assert.False(t, cfg.Interactive)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
host: trident.local
port: 7130
log_level: debug
heartbeat: 2s
gcode_log: 200
interactive: true
`)

	cfg, err := loadConfig([]string{"-config", path}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "trident.local", cfg.Host)
	assert.Equal(t, 7130, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Heartbeat)
	assert.Equal(t, 200, cfg.GcodeLog)
	assert.True(t, cfg.Interactive)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "host: trident.local\nport: 7130\nlog_level: debug\n")

	cfg, err := loadConfig([]string{"-config", path, "-port", "8080", "-log-level", "warn"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "trident.local", cfg.Host, "unset flags keep the file value")
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no host", args: nil},
		{name: "bad port", args: []string{"-host", "h", "-port", "70000"}},
		{name: "bad level", args: []string{"-host", "h", "-log-level", "loud"}},
		{name: "bad heartbeat", args: []string{"-host", "h", "-heartbeat", "0s"}},
		{name: "watch without state", args: []string{"-host", "h", "-watch-settings"}},
		{name: "unknown flag", args: []string{"-bogus"}},
		{name: "missing file", args: []string{"-config", "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "host: [unterminated\n")
	_, err := loadConfig([]string{"-config", path}, io.Discard)
	assert.ErrorContains(t, err, "parse config")
}

func TestConfigPaths(t *testing.T) {
	cfg := Config{StateDir: "/var/lib/mainsail-sync"}
	assert.Equal(t, "/var/lib/mainsail-sync/client.json", cfg.StatePath())
	assert.Equal(t, "/var/lib/mainsail-sync/cache", cfg.CacheDir())
}

func TestStateDirAllowsNoHost(t *testing.T) {
	cfg, err := loadConfig([]string{"-state-dir", t.TempDir()}, io.Discard)
	require.NoError(t, err)
	assert.Empty(t, cfg.Host)
}
