package log

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{})

	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	rec := &recordingLogger{}
	if OrNoop(rec) != Logger(rec) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestMultiLogger(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{ConnectionID: "x"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fan-out: a=%d b=%d", len(a.events), len(b.events))
	}
	if b.events[0].ConnectionID != "x" {
		t.Errorf("ConnectionID = %q", b.events[0].ConnectionID)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	latency := 5 * time.Millisecond
	adapter.Log(Event{
		ConnectionID: "sess-1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		Message: &MessageEvent{
			Type:    MessageTypeResponse,
			ID:      4,
			Method:  "get_directory",
			Tag:     "getDirectoryRoot",
			Latency: &latency,
		},
	})

	out := buf.String()
	for _, want := range []string{"conn_id=sess-1", "msg_type=RESPONSE", "id=4", "method=get_directory", "tag=getDirectoryRoot", "latency=5ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityKlippy, OldState: "startup", NewState: "ready"},
	})

	if !strings.Contains(buf.String(), "entity=KLIPPY") || !strings.Contains(buf.String(), "new_state=ready") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}
