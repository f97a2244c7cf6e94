package subscription

import (
	"log/slog"
	"sync"

	"github.com/Steam-Park/mainsail/pkg/interaction"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// DefaultBaseline is the fixed set of core objects subscribed on ready.
var DefaultBaseline = []string{
	"gcode",
	"toolhead",
	"virtual_sdcard",
	"heaters",
	"fan",
	"pause_resume",
	"idle_timeout",
	"display_status",
}

// Identity is the host information recorded on a rising edge.
type Identity struct {
	Hostname string
	Version  string
}

// Config configures an Orchestrator.
type Config struct {
	// Store is reset and populated by the cascade. Required.
	Store *state.Store

	// Requests sends discovery and subscription requests. Required.
	Requests interaction.Requester

	// Baseline overrides DefaultBaseline.
	Baseline []string

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger
}

// Orchestrator drives the discovery and subscribe cascade.
type Orchestrator struct {
	store    *state.Store
	requests interaction.Requester
	baseline []string
	logger   *slog.Logger

	mu     sync.RWMutex
	active *Set
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Store == nil || cfg.Requests == nil {
		panic("subscription: Store and Requests are required")
	}
	baseline := cfg.Baseline
	if len(baseline) == 0 {
		baseline = DefaultBaseline
	}
	return &Orchestrator{
		store:    cfg.Store,
		requests: cfg.Requests,
		baseline: baseline,
		logger:   cfg.Logger,
		active:   NewSet(),
	}
}

// Active returns a copy of the objects currently subscribed.
func (o *Orchestrator) Active() *Set {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := NewSet()
	s.Merge(o.active)
	return s
}

// OnReady runs the cascade for a readiness rising edge. The store is reset
// before any request is sent, so no discovery response can be merged into
// a stale mirror.
func (o *Orchestrator) OnReady(id Identity) {
	o.store.Reset()
	o.mu.Lock()
	o.active.Clear()
	o.mu.Unlock()

	o.store.Merge(state.InfoObject, map[string]any{
		"hostname": id.Hostname,
		"version":  id.Version,
	})

	o.send(wire.MethodObjectsList, nil, interaction.TagObjectInfo)
	o.send(wire.MethodObjectsStatus, map[string][]string{"heaters": {}}, interaction.TagHeatersInfo)
	o.send(wire.MethodObjectsStatus, map[string][]string{"configfile": {"config"}}, interaction.TagPrinterConfig)
	o.send(wire.MethodDirectory, map[string]any{"path": wire.RootDirectory}, interaction.TagDirectory)

	o.subscribe(NewSet(o.baseline...))
}

// OnObjectList handles the object list: one subscription for every
// dynamic object and one bed mesh snapshot when a mesh exists.
func (o *Orchestrator) OnObjectList(names []string) {
	o.store.SetObjectNames(names)

	dynamic := NewSet()
	meshes := NewSet()
	for _, name := range names {
		c, ok := Classify(name)
		if !ok {
			continue
		}
		dynamic.Add(name)
		if c == CategoryBedMesh {
			meshes.Add(name)
		}
	}

	o.subscribe(dynamic)
	if meshes.Len() > 0 {
		o.send(wire.MethodObjectsStatus, meshes.Params(), interaction.TagPrinterData)
	}
}

// OnHeaters handles the heater catalog: one subscription covering every
// available heater, then the temperature history request.
func (o *Orchestrator) OnHeaters(available []string) {
	if len(available) == 0 {
		o.debugLog("no heaters available")
		return
	}
	o.subscribe(NewSet(available...))
	o.send(wire.MethodTemperatureStore, nil, interaction.TagHeatersHistory)
}

// subscribe sends one combined subscription. Empty sets are never sent.
func (o *Orchestrator) subscribe(s *Set) {
	if s.Len() == 0 {
		o.debugLog("empty subscription suppressed")
		return
	}
	o.mu.Lock()
	o.active.Merge(s)
	o.mu.Unlock()

	o.debugLog("subscribing", "objects", s.Names())
	o.send(wire.MethodSubscribe, s.Params(), "")
}

func (o *Orchestrator) send(method string, params any, tag string) {
	if _, err := o.requests.Send(method, params, tag); err != nil && o.logger != nil {
		o.logger.Warn("request not sent", "method", method, "tag", tag, "error", err)
	}
}

func (o *Orchestrator) debugLog(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}
