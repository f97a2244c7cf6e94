package interaction

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/transport"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// Handler receives the outcome of a tagged request. Exactly one of result
// and err is set.
type Handler func(result json.RawMessage, err error)

// PendingRequest is a tagged request awaiting its response.
type PendingRequest struct {
	ID       uint64
	Tag      string
	Method   string
	IssuedAt time.Time
}

// Stats counts dispatcher outcomes since creation.
type Stats struct {
	Sent       uint64
	Matched    uint64
	Orphaned   uint64
	Suppressed uint64
	Failed     uint64
}

// Config configures a Dispatcher.
type Config struct {
	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger

	// ProtocolLogger captures requests and responses. Nil disables capture.
	ProtocolLogger log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Dispatcher assigns request ids and routes responses to tag handlers.
type Dispatcher struct {
	transport transport.Transport
	logger    *slog.Logger
	capture   log.Logger
	now       func() time.Time

	mu       sync.Mutex
	nextID   uint64
	pending  map[uint64]PendingRequest
	handlers map[string]Handler
	stats    Stats
	session  string
}

// NewDispatcher creates a dispatcher sending through t.
func NewDispatcher(t transport.Transport, cfg Config) *Dispatcher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		transport: t,
		logger:    cfg.Logger,
		capture:   log.OrNoop(cfg.ProtocolLogger),
		now:       now,
		pending:   make(map[uint64]PendingRequest),
		handlers:  make(map[string]Handler),
	}
}

// SetSession sets the connection id stamped on captured events.
func (d *Dispatcher) SetSession(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = id
}

// Handle registers the handler for tag, replacing any previous one.
func (d *Dispatcher) Handle(tag string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[tag] = h
}

// Send transmits a request and returns its id. A non-empty tag records a
// pending request whose response goes to the tag's handler.
func (d *Dispatcher) Send(method string, params any, tag string) (uint64, error) {
	if method == "" {
		return 0, ErrMethodRequired
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	issued := d.now()
	if tag != "" {
		d.pending[id] = PendingRequest{ID: id, Tag: tag, Method: method, IssuedAt: issued}
	}
	session := d.session
	d.mu.Unlock()

	req := wire.NewRequest(method, params, id)
	data, err := wire.EncodeRequest(req)
	if err == nil {
		err = d.transport.Send(data)
	}
	if err != nil {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
		d.warnLog("send failed", "method", method, "id", id, "tag", tag, "error", err)
		return 0, fmt.Errorf("send %s: %w", method, err)
	}

	d.mu.Lock()
	d.stats.Sent++
	d.mu.Unlock()

	d.capture.Log(log.Event{
		Timestamp:    issued,
		ConnectionID: session,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:    log.MessageTypeRequest,
			ID:      id,
			Method:  method,
			Tag:     tag,
			Payload: req.Params,
		},
	})
	d.debugLog("request sent", "method", method, "id", id, "tag", tag)
	return id, nil
}

// HandleResponse routes a response to the handler of its pending request.
// Unknown ids are dropped. It never returns an error: per-request failures
// go to the request's handler only.
func (d *Dispatcher) HandleResponse(resp *wire.Response) {
	if resp == nil {
		return
	}

	d.mu.Lock()
	req, ok := d.pending[resp.ID]
	if ok {
		delete(d.pending, resp.ID)
	}
	handler := d.handlers[req.Tag]
	now := d.now()
	session := d.session
	switch {
	case !ok:
		d.stats.Orphaned++
	case resp.Error.IsBenignTimeout():
		d.stats.Suppressed++
	case resp.IsError():
		d.stats.Failed++
	default:
		d.stats.Matched++
	}
	d.mu.Unlock()

	d.captureResponse(resp, req, ok, now, session)

	if !ok {
		if resp.IsError() && !resp.Error.IsBenignTimeout() {
			d.warnLog("JSON-RPC: "+resp.Error.Message, "id", resp.ID)
		} else {
			d.debugLog("dropped response for unknown id", "id", resp.ID)
		}
		return
	}

	if resp.Error.IsBenignTimeout() {
		d.debugLog("suppressed benign timeout", "id", resp.ID, "tag", req.Tag, "method", req.Method, "error", ErrBenignTimeout)
		return
	}

	if handler == nil {
		d.debugLog("no handler for tag", "tag", req.Tag, "id", resp.ID)
		return
	}

	if resp.IsError() {
		err := &RequestError{
			ID:      resp.ID,
			Tag:     req.Tag,
			Method:  req.Method,
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
		}
		d.warnLog("request failed", "tag", req.Tag, "error", err)
		handler(nil, err)
		return
	}
	handler(resp.Result, nil)
}

func (d *Dispatcher) captureResponse(resp *wire.Response, req PendingRequest, matched bool, now time.Time, session string) {
	me := &log.MessageEvent{
		Type:    log.MessageTypeResponse,
		ID:      resp.ID,
		Payload: log.JSONPayload(resp.Result),
	}
	if matched {
		latency := now.Sub(req.IssuedAt)
		me.Method = req.Method
		me.Tag = req.Tag
		me.Latency = &latency
	}
	if resp.Error != nil {
		me.ErrorMessage = resp.Error.Message
	}
	d.capture.Log(log.Event{
		Timestamp:    now,
		ConnectionID: session,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message:      me,
	})
}

// Reset discards every pending request and returns how many were dropped.
// Called when the connection is torn down.
func (d *Dispatcher) Reset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.pending)
	d.pending = make(map[uint64]PendingRequest)
	return n
}

// Pending returns the number of outstanding tagged requests.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// PendingRequests returns the outstanding tagged requests ordered by id.
func (d *Dispatcher) PendingRequests() []PendingRequest {
	d.mu.Lock()
	out := make([]PendingRequest, 0, len(d.pending))
	for _, p := range d.pending {
		out = append(out, p)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns a copy of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dispatcher) debugLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) warnLog(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
