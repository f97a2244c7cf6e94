package service

import (
	"log/slog"
	"time"

	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/state"
)

// DefaultSettingsFile is the UI settings blob looked up in the root listing.
const DefaultSettingsFile = "gui.json"

// DefaultInboxSize is the capacity of the loop's work queue.
const DefaultInboxSize = 32

// Config configures an Engine.
type Config struct {
	// HeartbeatInterval is the identity re-query period while ready.
	HeartbeatInterval time.Duration

	// Baseline overrides the core objects subscribed on ready.
	Baseline []string

	// GcodeLogSize bounds the gcode response log.
	GcodeLogSize int

	// Settings loads and saves the UI settings blob. Nil disables the
	// settings side channel.
	Settings SettingsStore

	// SettingsFile is the settings file name in the root listing.
	SettingsFile string

	// InboxSize is the capacity of the loop's work queue.
	InboxSize int

	// OnStateChange is called after every connection state transition.
	OnStateChange func(oldState, newState connection.State)

	// OnChange is called after every store mutation.
	OnChange func(state.Change)

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures protocol traffic. Nil disables capture.
	ProtocolLogger log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: connection.DefaultHeartbeatInterval,
		GcodeLogSize:      state.DefaultGcodeLogSize,
		SettingsFile:      DefaultSettingsFile,
		InboxSize:         DefaultInboxSize,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.GcodeLogSize <= 0 {
		c.GcodeLogSize = d.GcodeLogSize
	}
	if c.SettingsFile == "" {
		c.SettingsFile = d.SettingsFile
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
}
