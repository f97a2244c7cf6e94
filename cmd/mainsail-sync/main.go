// Command mainsail-sync mirrors the state of a Moonraker/Klipper printer
// host over its websocket API.
//
// This command demonstrates a complete client with:
//   - CLI argument parsing
//   - Configuration file support
//   - Host discovery via mDNS
//   - Settings file synchronization
//   - Interactive command interface
//   - Protocol capture
//
// Usage:
//
//	mainsail-sync [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-host string        Host name or address of the printer API
//	-port int           Port of the printer API (default 7125)
//	-discover           Discover the host via mDNS when -host is empty
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-capture string     Write a protocol capture to this file
//	-heartbeat duration Identity poll interval (default 5s)
//	-gcode-log int      Gcode responses to keep
//	-interactive        Enable interactive command mode
//	-watch-settings     Upload local edits of the settings file
//	-state-dir string   Directory for persistent state
//	-reset              Clear all persisted state before starting
//
// Examples:
//
//	# Connect to a known host with the interactive console
//	mainsail-sync -host voron.local -interactive
//
//	# Find the host on the local network and capture the session
//	mainsail-sync -discover -capture session.clog
//
//	# Keep a local copy of the UI settings and push edits back
//	mainsail-sync -host voron.local -state-dir ~/.mainsail-sync -watch-settings
//
// Interactive Commands:
//
//	status      - Show connection status
//	objects     - List mirrored objects
//	get <path>  - Show an object or attribute
//	gcode <script> - Send a gcode script
//	quit        - Exit
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/Steam-Park/mainsail/cmd/mainsail-sync/interactive"
	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/discovery"
	"github.com/Steam-Park/mainsail/pkg/files"
	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/persistence"
	"github.com/Steam-Park/mainsail/pkg/service"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "mainsail-sync: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args, os.Stderr)
	if err != nil {
		return err
	}

	logOut := &switchWriter{w: os.Stderr}
	level, _ := parseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence
	var stateStore *persistence.ClientStateStore
	var blobs *persistence.BlobStore
	if cfg.StateDir != "" {
		logger.Info("using state directory", "dir", cfg.StateDir)
		stateStore = persistence.NewClientStateStore(cfg.StatePath())
		blobs = persistence.NewBlobStore(cfg.CacheDir())
		if cfg.Reset {
			logger.Info("resetting persisted state")
			if err := stateStore.Clear(); err != nil {
				logger.Warn("failed to clear state", "error", err)
			}
			if err := blobs.Delete(files.DefaultSettingsName); err != nil {
				logger.Warn("failed to clear settings cache", "error", err)
			}
		}
	}

	host, port, err := resolveHost(ctx, cfg, stateStore, logger)
	if err != nil {
		return err
	}
	logger.Info("host", "address", host, "port", port)

	protocol, closeCapture, err := setupCapture(cfg.Capture, logger, level)
	if err != nil {
		return err
	}
	defer closeCapture()

	// Transport
	wsCfg := transport.DefaultConfig(host, port)
	wsCfg.Logger = logger
	ws, err := transport.NewWebSocketClient(wsCfg)
	if err != nil {
		return err
	}

	// Settings
	fileCfg := files.DefaultConfig(host, port)
	fileCfg.Logger = logger
	fileClient, err := files.NewClient(fileCfg)
	if err != nil {
		return err
	}
	settingsCfg := files.SettingsConfig{Logger: logger}
	if blobs != nil {
		settingsCfg.Cache = blobs
	}
	settings, err := files.NewSettings(fileClient, settingsCfg)
	if err != nil {
		return err
	}

	var engine *service.Engine

	var watcher *files.Watcher
	if cfg.WatchSettings {
		watcher, err = files.NewWatcher(files.WatcherConfig{
			Path:   filepath.Join(blobs.Dir(), settings.Name()),
			Logger: logger,
			OnChange: func(ctx context.Context, data []byte) error {
				return pushSettings(ctx, engine, settings, data)
			},
		})
		if err != nil {
			return err
		}
	}

	var recorder *stateRecorder
	if stateStore != nil {
		recorder = newStateRecorder(stateStore, host, port, logger)
	}

	engine = service.NewEngine(ws, service.Config{
		HeartbeatInterval: cfg.Heartbeat,
		GcodeLogSize:      cfg.GcodeLog,
		Settings:          settings,
		SettingsFile:      settings.Name(),
		Logger:            logger,
		ProtocolLogger:    protocol,
		OnStateChange: func(oldState, newState connection.State) {
			logger.Info("connection state", "from", oldState, "to", newState)
			if recorder != nil {
				recorder.OnStateChange(oldState, newState)
			}
		},
		OnChange: func(change state.Change) {
			switch {
			case change.Kind == state.ChangeSettings && watcher != nil:
				watcher.Seen(engine.Store().Settings())
			case recorder != nil:
				recorder.OnChange(change, func() map[string]any {
					info, _ := engine.Store().Object(state.InfoObject)
					return info
				})
			}
		},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("transport stopped", "error", err)
		}
	}()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Run(ctx, ws.Events())
	}()

	if watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("settings watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Interactive {
		console, err := interactive.New(engine)
		if err != nil {
			return err
		}
		logOut.Set(console.Stdout())
		go console.Run(ctx, stop)
	}

	var engineErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		stop()
		engineErr = <-engineDone
	case engineErr = <-engineDone:
		stop()
	}

	_ = ws.Close()
	wg.Wait()
	if engineErr != nil && !errors.Is(engineErr, context.Canceled) {
		return engineErr
	}
	return nil
}

// resolveHost picks the host from the flags, mDNS discovery, or the
// remembered state, in that order.
func resolveHost(ctx context.Context, cfg Config, store *persistence.ClientStateStore, logger *slog.Logger) (string, int, error) {
	if cfg.Host != "" {
		return cfg.Host, cfg.Port, nil
	}

	if cfg.Discover {
		logger.Info("discovering hosts", "service", discovery.ServiceType)
		browser := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		defer browser.Stop()

		found, err := browser.FindFirst(ctx)
		if err == nil {
			logger.Info("discovered host", "instance", found.Instance, "address", found.HostPort())
			return found.Addr(), int(found.Port), nil
		}
		if store == nil {
			return "", 0, fmt.Errorf("discover: %w", err)
		}
		logger.Warn("discovery failed, trying remembered host", "error", err)
	}

	if store != nil {
		cs, err := store.Load()
		if err != nil {
			return "", 0, fmt.Errorf("load state: %w", err)
		}
		if cs != nil && cs.Host != "" {
			logger.Info("using remembered host", "hostname", cs.Hostname, "last_ready", cs.LastReadyAt)
			return cs.Host, cs.Port, nil
		}
	}
	return "", 0, errors.New("no host configured, discovered or remembered")
}

// setupCapture opens the protocol capture file. At debug level protocol
// events are also logged.
func setupCapture(path string, logger *slog.Logger, level slog.Level) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open capture: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("failed to close capture", "error", err)
				return
			}
			logger.Info("capture written", "path", path, "events", fl.Count())
		}
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

// pushSettings uploads a local settings edit unless it matches what the
// host already has.
func pushSettings(ctx context.Context, engine *service.Engine, settings *files.Settings, data []byte) error {
	normalized, err := settings.Decode(data)
	if err != nil {
		return err
	}
	if bytes.Equal(normalized, engine.Store().Settings()) {
		return nil
	}
	return engine.SaveSettings(ctx, data)
}

// switchWriter lets the interactive console take over log output after
// the logger is built.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}
