package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// Routing errors. They are returned for diagnostics and logged; callers
// are expected to carry on with the next message.
var (
	ErrUnknownNotification = errors.New("unknown notification")
	ErrUnknownFileAction   = errors.New("unknown filelist action")
	ErrInvalidParams       = errors.New("invalid notification params")

	errMissingPath = fmt.Errorf("%w: missing path", ErrInvalidParams)
)

// Handler applies one notification.
type Handler func(n *wire.Notification) error

// KlippyStateFunc receives firmware state changes ("ready", "shutdown",
// "disconnected", ...).
type KlippyStateFunc func(state string)

// Config configures a Router.
type Config struct {
	// Store receives every state mutation. Required.
	Store *state.Store

	// OnKlippyState receives firmware readiness changes.
	OnKlippyState KlippyStateFunc

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger captures inbound notifications. Nil disables capture.
	ProtocolLogger log.Logger
}

// Router dispatches notifications through the method and file action tables.
type Router struct {
	store   *state.Store
	klippy  KlippyStateFunc
	logger  *slog.Logger
	capture log.Logger
	session string

	methods map[string]Handler
	actions map[string]FileHandler
}

// NewRouter creates a router with the default tables.
func NewRouter(cfg Config) *Router {
	if cfg.Store == nil {
		panic("notify: Store is required")
	}
	r := &Router{
		store:   cfg.Store,
		klippy:  cfg.OnKlippyState,
		logger:  cfg.Logger,
		capture: log.OrNoop(cfg.ProtocolLogger),
	}
	r.methods = map[string]Handler{
		wire.NotifyStatusUpdate:       r.statusUpdate,
		wire.NotifyGcodeResponse:      r.gcodeResponse,
		wire.NotifyKlippyStateChanged: r.klippyStateChanged,
		wire.NotifyFilelistChanged:    r.filelistChanged,
		wire.NotifyKlippyReady:        r.klippyFixed("ready"),
		wire.NotifyKlippyShutdown:     r.klippyFixed("shutdown"),
		wire.NotifyKlippyDisconnected: r.klippyFixed("disconnected"),
	}
	r.actions = r.defaultFileActions()
	return r
}

// SetSession sets the connection id stamped on captured events.
func (r *Router) SetSession(id string) {
	r.session = id
}

// Methods returns the routed notification methods, sorted.
func (r *Router) Methods() []string {
	return sortedNames(r.methods)
}

// Actions returns the recognized file actions, sorted.
func (r *Router) Actions() []string {
	return sortedNames(r.actions)
}

// Route applies n. Unknown methods, unknown file actions and bad params
// are logged and returned; no state is touched in those cases.
func (r *Router) Route(n *wire.Notification) error {
	if n == nil {
		return nil
	}
	r.captureNotification(n)

	h, ok := r.methods[n.Method]
	if !ok {
		r.debugLog("ignoring notification", "method", n.Method)
		return fmt.Errorf("%w: %s", ErrUnknownNotification, n.Method)
	}
	if err := h(n); err != nil {
		if errors.Is(err, ErrUnknownFileAction) {
			r.errorLog("unknown filelist_changed action", "error", err)
		} else {
			r.warnLog("notification not applied", "method", n.Method, "error", err)
		}
		return err
	}
	return nil
}

func (r *Router) statusUpdate(n *wire.Notification) error {
	var status map[string]any
	if err := n.Param(0, &status); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	r.store.MergeStatus(status)
	return nil
}

func (r *Router) gcodeResponse(n *wire.Notification) error {
	var line string
	if err := n.Param(0, &line); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	r.store.AppendGcodeResponse(line)
	return nil
}

func (r *Router) klippyStateChanged(n *wire.Notification) error {
	var st string
	if err := n.Param(0, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	r.setKlippy(st)
	return nil
}

func (r *Router) klippyFixed(st string) Handler {
	return func(*wire.Notification) error {
		r.setKlippy(st)
		return nil
	}
}

func (r *Router) setKlippy(st string) {
	r.debugLog("klippy state changed", "state", st)
	if r.klippy != nil {
		r.klippy(st)
	}
}

func (r *Router) filelistChanged(n *wire.Notification) error {
	var change FileChange
	if err := n.Param(0, &change); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	h, ok := r.actions[change.Action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFileAction, change.Action)
	}
	return h(change)
}

func (r *Router) captureNotification(n *wire.Notification) {
	params := make([]any, len(n.Params))
	for i, p := range n.Params {
		params[i] = log.JSONPayload(json.RawMessage(p))
	}
	r.capture.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: r.session,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:    log.MessageTypeNotification,
			Method:  n.Method,
			Payload: params,
		},
	})
}

func (r *Router) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Router) warnLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Router) errorLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
