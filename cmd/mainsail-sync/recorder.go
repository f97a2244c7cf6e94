package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/persistence"
	"github.com/Steam-Park/mainsail/pkg/state"
)

// stateRecorder remembers the host across runs. It saves once per ready
// period, after the identity has been merged into the store.
type stateRecorder struct {
	store  *persistence.ClientStateStore
	host   string
	port   int
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	ready    bool
	recorded bool
}

func newStateRecorder(store *persistence.ClientStateStore, host string, port int, logger *slog.Logger) *stateRecorder {
	return &stateRecorder{
		store:  store,
		host:   host,
		port:   port,
		logger: logger,
		now:    time.Now,
	}
}

// OnStateChange tracks the ready period.
func (r *stateRecorder) OnStateChange(_, newState connection.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = newState == connection.StateReady
	if !r.ready {
		r.recorded = false
	}
}

// OnChange saves the host once its identity is mirrored while ready.
func (r *stateRecorder) OnChange(change state.Change, info func() map[string]any) {
	if change.Kind != state.ChangeMerge || change.Object != state.InfoObject {
		return
	}

	r.mu.Lock()
	if !r.ready || r.recorded {
		r.mu.Unlock()
		return
	}
	r.recorded = true
	r.mu.Unlock()

	attrs := info()
	cs := &persistence.ClientState{
		Host:            r.host,
		Port:            r.port,
		Hostname:        stringAttr(attrs, "hostname"),
		SoftwareVersion: stringAttr(attrs, "version"),
		LastReadyAt:     r.now(),
	}
	if err := r.store.Save(cs); err != nil && r.logger != nil {
		r.logger.Warn("failed to save client state", "error", err)
	}
}

func stringAttr(attrs map[string]any, name string) string {
	v, ok := attrs[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
