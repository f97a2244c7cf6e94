package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 250 * time.Millisecond

// ErrNoHandler is returned by NewWatcher without an OnChange callback.
var ErrNoHandler = errors.New("watcher: OnChange is required")

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the watched file.
	Path string

	// Debounce is the quiet period before a change is reported.
	Debounce time.Duration

	// OnChange receives the file content after each settled change.
	OnChange func(ctx context.Context, data []byte) error

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Watcher reports content changes of one local file. It watches the parent
// directory so editors that save by rename are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context, data []byte) error
	logger   *slog.Logger

	mu   sync.Mutex
	last []byte
}

// NewWatcher creates a watcher for cfg.Path.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watcher: path is required")
	}
	if cfg.OnChange == nil {
		return nil, ErrNoHandler
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     abs,
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Seen records data as the current content, so writing it to the file
// does not report a change.
func (w *Watcher) Seen(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = append([]byte(nil), data...)
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.debugLog("watching", "path", w.path)

	// fire is nil while no change is pending.
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.warnLog("watch error", "error", err)

		case <-fire:
			fire = nil
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.warnLog("read failed", "path", w.path, "error", err)
		}
		return
	}

	w.mu.Lock()
	unchanged := w.last != nil && bytes.Equal(w.last, data)
	if !unchanged {
		w.last = data
	}
	w.mu.Unlock()
	if unchanged {
		return
	}

	w.debugLog("file changed", "path", w.path, "size", len(data))
	if err := w.onChange(ctx, data); err != nil {
		w.warnLog("change not applied", "path", w.path, "error", err)
	}
}

func (w *Watcher) debugLog(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

func (w *Watcher) warnLog(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
