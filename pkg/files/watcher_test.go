package files

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []string
}

func (r *changeRecorder) record(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, string(data))
	return nil
}

func (r *changeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changes...)
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give fsnotify time to register the directory.
	time.Sleep(50 * time.Millisecond)
}

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{OnChange: func(context.Context, []byte) error { return nil }})
	assert.Error(t, err)

	_, err = NewWatcher(WatcherConfig{Path: "gui.json"})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestWatcherReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gui.json")
	rec := &changeRecorder{}
	w, err := NewWatcher(WatcherConfig{Path: path, Debounce: 20 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(path, []byte(`{"gui":{}}`), 0644))
	assert.Eventually(t, func() bool {
		got := rec.snapshot()
		return len(got) == 1 && got[0] == `{"gui":{}}`
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1, "other files are ignored")
}

func TestWatcherSkipsSeenContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gui.json")
	rec := &changeRecorder{}
	w, err := NewWatcher(WatcherConfig{Path: path, Debounce: 20 * time.Millisecond, OnChange: rec.record})
	require.NoError(t, err)
	startWatcher(t, w)

	w.Seen([]byte(`{"webcam":{}}`))
	require.NoError(t, os.WriteFile(path, []byte(`{"webcam":{}}`), 0644))
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.snapshot(), "content written by the client is not echoed back")

	require.NoError(t, os.WriteFile(path, []byte(`{"webcam":{"url":"/cam"}}`), 0644))
	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
