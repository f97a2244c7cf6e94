package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Steam-Park/mainsail/pkg/interaction"
	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// DefaultHeartbeatInterval is the identity re-query period while ready.
const DefaultHeartbeatInterval = 5 * time.Second

// KlippyReady is the firmware state reported by a ready host.
const KlippyReady = "ready"

// State is the connection lifecycle state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnected
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Manager.
type Config struct {
	// HeartbeatInterval is the identity re-query period while ready.
	HeartbeatInterval time.Duration

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger captures state changes. Nil disables capture.
	ProtocolLogger log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{HeartbeatInterval: DefaultHeartbeatInterval}
}

// Manager is the connection state machine.
//
// It is driven from the engine's event loop. Accessors take a lock so the
// state can be read from other goroutines.
type Manager struct {
	requests interaction.Requester
	config   Config
	logger   *slog.Logger
	capture  log.Logger
	now      func() time.Time

	mu          sync.RWMutex
	state       State
	session     string
	klippyState string
	klippyReady bool
	lastClose   *CloseEvent
	heartbeat   *time.Ticker

	onStateChange func(oldState, newState State)
}

// NewManager creates a disconnected manager issuing requests through r.
func NewManager(r interaction.Requester, config Config) *Manager {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultHeartbeatInterval
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		requests: r,
		config:   config,
		logger:   config.Logger,
		capture:  log.OrNoop(config.ProtocolLogger),
		now:      now,
		state:    StateDisconnected,
	}
}

// OnStateChange sets a callback invoked after every transition.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsReady reports whether the host is ready.
func (m *Manager) IsReady() bool {
	return m.State() == StateReady
}

// Session returns the current transport session id.
func (m *Manager) Session() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// KlippyState returns the last firmware state reported by the host.
func (m *Manager) KlippyState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.klippyState
}

// KlippyReady reports the readiness guard used to detect rising edges.
func (m *Manager) KlippyReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.klippyReady
}

// LastClose returns the most recent close report, nil if none.
func (m *Manager) LastClose() *CloseEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastClose
}

// HeartbeatC returns the heartbeat tick channel while ready, nil otherwise.
// A nil channel blocks forever in a select.
func (m *Manager) HeartbeatC() <-chan time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateReady || m.heartbeat == nil {
		return nil
	}
	return m.heartbeat.C
}

// OnOpen records a new transport session and runs the bootstrap handshake.
// An open while not disconnected means the previous close was missed; the
// manager passes through DISCONNECTED first.
func (m *Manager) OnOpen(session string) {
	if m.State() != StateDisconnected {
		m.debugLog("open without close, resetting", "session", session)
		m.disconnect(nil)
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.transition(StateConnected, "open")
	m.handshake()
}

// OnClose records the end of the session and classifies it.
func (m *Manager) OnClose(clean bool, code int) *CloseEvent {
	ev := &CloseEvent{Kind: CloseAbnormal, Code: code, At: m.now()}
	if clean {
		ev.Kind = CloseClean
	}
	m.disconnect(ev)

	if clean {
		m.infoLog("connection closed", "code", code)
	} else {
		m.warnLog("connection lost", "code", code)
	}
	return ev
}

// OnMessage marks the connection live. A message implies the session is
// open even if the open event was missed.
func (m *Manager) OnMessage() {
	if m.State() == StateDisconnected {
		m.transition(StateConnected, "message")
	}
}

// SetIdentity applies the readiness from an identity response. It returns
// true on a rising edge, when the host reports ready and was not ready
// before; the manager is then READY. Repeated ready reports return false.
func (m *Manager) SetIdentity(ready bool, klippyState string) bool {
	m.mu.Lock()
	if m.state == StateDisconnected {
		m.mu.Unlock()
		return false
	}
	old := m.klippyState
	if klippyState != "" {
		m.klippyState = klippyState
	}
	rising := ready && !m.klippyReady
	m.klippyReady = ready
	m.mu.Unlock()

	if klippyState != "" && klippyState != old {
		m.captureKlippy(old, klippyState, "identity")
	}
	if rising {
		m.transition(StateReady, "identity ready")
	}
	return rising
}

// SetKlippyState applies a firmware state notification. Any state other
// than ready clears the readiness guard so the next ready identity is a
// new rising edge. The connection state itself never moves backwards here.
// It returns true when the guard was cleared.
func (m *Manager) SetKlippyState(state string) bool {
	m.mu.Lock()
	old := m.klippyState
	m.klippyState = state
	cleared := state != KlippyReady && m.klippyReady
	if state != KlippyReady {
		m.klippyReady = false
	}
	m.mu.Unlock()

	if state != old {
		m.captureKlippy(old, state, "notification")
	}
	return cleared
}

// Beat reissues the identity request. Called on every heartbeat tick.
func (m *Manager) Beat() {
	if !m.IsReady() {
		return
	}
	m.requestIdentity()
}

// RequestIdentity sends an identity request outside the heartbeat.
func (m *Manager) RequestIdentity() {
	if m.State() == StateDisconnected {
		return
	}
	m.requestIdentity()
}

// Stop releases the heartbeat ticker.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopHeartbeatLocked()
}

func (m *Manager) handshake() {
	m.send(wire.MethodObjectsStatus, nil, interaction.TagHelpData)
	m.send(wire.MethodDirectory, map[string]any{"path": wire.RootDirectory}, interaction.TagDirectoryRoot)
	m.requestIdentity()
}

func (m *Manager) requestIdentity() {
	m.send(wire.MethodPrinterInfo, nil, interaction.TagKlipperInfo)
}

func (m *Manager) send(method string, params any, tag string) {
	if _, err := m.requests.Send(method, params, tag); err != nil {
		m.warnLog("request not sent", "method", method, "error", err)
	}
}

func (m *Manager) disconnect(ev *CloseEvent) {
	m.mu.Lock()
	m.klippyReady = false
	m.klippyState = ""
	m.session = ""
	if ev != nil {
		m.lastClose = ev
	}
	m.mu.Unlock()

	reason := "reset"
	if ev != nil {
		reason = ev.Error()
	}
	m.transition(StateDisconnected, reason)
}

// transition moves to next, enforcing forward-only moves except into
// DISCONNECTED, and starts or stops the heartbeat.
func (m *Manager) transition(next State, reason string) {
	m.mu.Lock()
	old := m.state
	if old == next || (next != StateDisconnected && next < old) {
		m.mu.Unlock()
		return
	}
	m.state = next
	if next == StateReady {
		m.heartbeat = time.NewTicker(m.config.HeartbeatInterval)
	} else {
		m.stopHeartbeatLocked()
	}
	session := m.session
	cb := m.onStateChange
	m.mu.Unlock()

	m.debugLog("state change", "old", old, "new", next, "reason", reason)
	m.capture.Log(log.Event{
		Timestamp:    m.now(),
		ConnectionID: session,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	if cb != nil {
		cb(old, next)
	}
}

func (m *Manager) stopHeartbeatLocked() {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
		m.heartbeat = nil
	}
}

func (m *Manager) captureKlippy(old, next, reason string) {
	m.capture.Log(log.Event{
		Timestamp:    m.now(),
		ConnectionID: m.Session(),
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityKlippy,
			OldState: old,
			NewState: next,
			Reason:   reason,
		},
	})
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) infoLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) warnLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
