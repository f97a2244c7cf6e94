package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Steam-Park/mainsail/pkg/connection"
)

// DefaultPort is the host's API port.
const DefaultPort = 7125

// Config holds the client configuration. Values come from an optional
// YAML file; flags given on the command line take precedence.
type Config struct {
	ConfigFile string `yaml:"-"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Discover bool   `yaml:"discover"`

	LogLevel string `yaml:"log_level"`
	Capture  string `yaml:"capture"`

	Heartbeat time.Duration `yaml:"heartbeat"`
	GcodeLog  int           `yaml:"gcode_log"`

	Interactive   bool `yaml:"interactive"`
	WatchSettings bool `yaml:"watch_settings"`

	// Persistence settings
	StateDir string `yaml:"state_dir"`
	Reset    bool   `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:      DefaultPort,
		LogLevel:  "info",
		Heartbeat: connection.DefaultHeartbeatInterval,
	}
}

// newFlagSet binds flags to cfg, using the current field values as the
// flag defaults.
func newFlagSet(cfg *Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("mainsail-sync", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Configuration file path (YAML)")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host name or address of the printer API")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port of the printer API")
	fs.BoolVar(&cfg.Discover, "discover", cfg.Discover, "Discover the host via mDNS when -host is empty")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Capture, "capture", cfg.Capture, "Write a protocol capture to this file")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Identity poll interval")
	fs.IntVar(&cfg.GcodeLog, "gcode-log", cfg.GcodeLog, "Gcode responses to keep (0 = default)")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Enable interactive command mode")
	fs.BoolVar(&cfg.WatchSettings, "watch-settings", cfg.WatchSettings, "Upload local edits of the settings file")
	fs.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "Directory for persistent state")
	fs.BoolVar(&cfg.Reset, "reset", cfg.Reset, "Clear all persisted state before starting")
	return fs
}

// loadConfig parses args. When -config names a file, the file is read
// first and the arguments are parsed again on top of it.
func loadConfig(args []string, output io.Writer) (Config, error) {
	cfg := DefaultConfig()
	if err := newFlagSet(&cfg, output).Parse(args); err != nil {
		return cfg, err
	}

	if cfg.ConfigFile != "" {
		path := cfg.ConfigFile
		fromFile, err := readConfigFile(path)
		if err != nil {
			return cfg, err
		}
		if err := newFlagSet(&fromFile, io.Discard).Parse(args); err != nil {
			return cfg, err
		}
		fromFile.ConfigFile = path
		cfg = fromFile
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// readConfigFile reads a YAML config on top of the defaults.
func readConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" && !c.Discover && c.StateDir == "" {
		return errors.New("no host: set -host, -discover or -state-dir with a remembered host")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Heartbeat <= 0 {
		return fmt.Errorf("invalid heartbeat %s", c.Heartbeat)
	}
	if c.GcodeLog < 0 {
		return fmt.Errorf("invalid gcode log size %d", c.GcodeLog)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.WatchSettings && c.StateDir == "" {
		return errors.New("-watch-settings requires -state-dir")
	}
	return nil
}

// StatePath returns the client state file path.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "client.json")
}

// CacheDir returns the directory for cached blobs.
func (c *Config) CacheDir() string {
	return filepath.Join(c.StateDir, "cache")
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
