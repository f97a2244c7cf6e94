package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/interaction"
	"github.com/Steam-Park/mainsail/pkg/notify"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/subscription"
	"github.com/Steam-Park/mainsail/pkg/transport"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// Status is a read-only summary of the engine.
type Status struct {
	State       connection.State
	Session     string
	KlippyState string
	KlippyReady bool
	LastClose   *connection.CloseEvent
	Pending     int
	Objects     int
	Subscribed  int
	Requests    interaction.Stats
}

// Engine is the single writer to the mirrored state.
type Engine struct {
	config Config
	logger *slog.Logger

	store        *state.Store
	dispatcher   *interaction.Dispatcher
	manager      *connection.Manager
	router       *notify.Router
	orchestrator *subscription.Orchestrator
	settings     SettingsStore

	inbox   chan func()
	done    chan struct{}
	running atomic.Bool

	// ctx is the Run context, used by background fetches.
	ctxMu sync.RWMutex
	ctx   context.Context
}

// NewEngine creates an engine sending requests through t.
func NewEngine(t transport.Transport, config Config) *Engine {
	config.applyDefaults()

	e := &Engine{
		config:   config,
		logger:   config.Logger,
		store:    state.NewStoreWithLogSize(config.GcodeLogSize),
		settings: config.Settings,
		inbox:    make(chan func(), config.InboxSize),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}

	e.dispatcher = interaction.NewDispatcher(t, interaction.Config{
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
		Now:            config.Now,
	})
	e.manager = connection.NewManager(e.dispatcher, connection.Config{
		HeartbeatInterval: config.HeartbeatInterval,
		Logger:            config.Logger,
		ProtocolLogger:    config.ProtocolLogger,
		Now:               config.Now,
	})
	e.router = notify.NewRouter(notify.Config{
		Store:          e.store,
		OnKlippyState:  e.onKlippyState,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	e.orchestrator = subscription.NewOrchestrator(subscription.Config{
		Store:    e.store,
		Requests: e.dispatcher,
		Baseline: config.Baseline,
		Logger:   config.Logger,
	})

	if config.OnStateChange != nil {
		e.manager.OnStateChange(config.OnStateChange)
	}
	if config.OnChange != nil {
		e.store.OnChange(config.OnChange)
	}
	e.registerHandlers()
	return e
}

// Store returns the mirrored state. Reads are safe from any goroutine.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Subscriptions returns the objects currently subscribed.
func (e *Engine) Subscriptions() *subscription.Set {
	return e.orchestrator.Active()
}

// Status returns a summary of the connection and the mirror.
func (e *Engine) Status() Status {
	return Status{
		State:       e.manager.State(),
		Session:     e.manager.Session(),
		KlippyState: e.manager.KlippyState(),
		KlippyReady: e.manager.KlippyReady(),
		LastClose:   e.manager.LastClose(),
		Pending:     e.dispatcher.Pending(),
		Objects:     len(e.store.Objects()),
		Subscribed:  e.orchestrator.Active().Len(),
		Requests:    e.dispatcher.Stats(),
	}
}

// Run processes transport events, heartbeat ticks and posted work until
// ctx is done or events is closed. Nothing a message contains stops the
// loop.
func (e *Engine) Run(ctx context.Context, events <-chan transport.Event) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)
	defer e.manager.Stop()

	e.ctxMu.Lock()
	e.ctx = ctx
	e.ctxMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				e.debugLog("event stream closed")
				return nil
			}
			e.handleEvent(ev)

		case <-e.manager.HeartbeatC():
			e.manager.Beat()

		case fn := <-e.inbox:
			fn()
		}
	}
}

// SendGcode sends a raw gcode script to the host.
func (e *Engine) SendGcode(ctx context.Context, script string) error {
	return e.call(ctx, func() error {
		if e.manager.State() == connection.StateDisconnected {
			return ErrNotConnected
		}
		_, err := e.dispatcher.Send(wire.MethodGcodeScript, map[string]any{"script": script}, interaction.TagSendGcode)
		return err
	})
}

// RequestHelp fetches the gcode command help list.
func (e *Engine) RequestHelp(ctx context.Context) error {
	return e.call(ctx, func() error {
		if e.manager.State() == connection.StateDisconnected {
			return ErrNotConnected
		}
		_, err := e.dispatcher.Send(wire.MethodGcodeHelp, nil, interaction.TagHelpList)
		return err
	})
}

// SaveSettings uploads the UI settings blob and mirrors it once stored.
func (e *Engine) SaveSettings(ctx context.Context, blob []byte) error {
	if e.settings == nil {
		return ErrNoSettings
	}
	stored, err := e.settings.Save(ctx, blob)
	if err != nil {
		return err
	}
	return e.post(ctx, func() {
		e.store.SetSettings(stored)
	})
}

func (e *Engine) handleEvent(ev transport.Event) {
	switch ev.Type {
	case transport.EventOpen:
		if n := e.dispatcher.Reset(); n > 0 {
			e.debugLog("dropped pending requests", "count", n)
		}
		e.setSession(ev.Session)
		e.manager.OnOpen(ev.Session)

	case transport.EventClose:
		e.manager.OnClose(ev.Clean, ev.Code)
		if n := e.dispatcher.Reset(); n > 0 {
			e.debugLog("dropped pending requests", "count", n)
		}
		e.setSession("")

	case transport.EventMessage:
		e.manager.OnMessage()
		e.handleMessage(ev.Data)
	}
}

func (e *Engine) handleMessage(data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		e.warnLog("dropping message", "error", err)
		return
	}
	switch msg.Kind {
	case wire.KindResponse:
		e.dispatcher.HandleResponse(msg.Response)
	case wire.KindNotification:
		// The router logs its own failures.
		_ = e.router.Route(msg.Notification)
	}
}

func (e *Engine) setSession(id string) {
	e.dispatcher.SetSession(id)
	e.router.SetSession(id)
}

// onKlippyState applies firmware state notifications. A ready
// notification before the identity reported ready triggers an identity
// request so the rising edge is not delayed until the next heartbeat.
func (e *Engine) onKlippyState(st string) {
	if e.manager.SetKlippyState(st) {
		e.infoLog("firmware left ready", "state", st)
	}
	if st == connection.KlippyReady && !e.manager.KlippyReady() {
		e.manager.RequestIdentity()
	}
}

// post queues fn for the loop.
func (e *Engine) post(ctx context.Context, fn func()) error {
	select {
	case e.inbox <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// call runs fn on the loop and waits for its result.
func (e *Engine) call(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	if err := e.post(ctx, func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

func (e *Engine) runContext() context.Context {
	e.ctxMu.RLock()
	defer e.ctxMu.RUnlock()
	return e.ctx
}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) infoLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) warnLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
