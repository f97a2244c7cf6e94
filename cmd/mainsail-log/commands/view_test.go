package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame:        log.NewFrameEvent([]byte(`{"jsonrpc":"2.0","method":"printer.info","id":3}`)),
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	// Check timestamp format
	if !strings.Contains(output, "2026-01-28T10:15:32.123456Z") {
		t.Errorf("expected microsecond timestamp, got: %s", output)
	}

	// Check connection ID (shortened)
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}

	if !strings.Contains(output, "OUT") || !strings.Contains(output, "TRANSPORT") {
		t.Errorf("expected OUT TRANSPORT header, got: %s", output)
	}

	// Frames are shown as text
	if !strings.Contains(output, `Data: {"jsonrpc":"2.0","method":"printer.info","id":3}`) {
		t.Errorf("expected frame text, got: %s", output)
	}
	if strings.Contains(output, "(truncated)") {
		t.Errorf("small frame marked truncated: %s", output)
	}
}

func TestFormatTruncatedFrame(t *testing.T) {
	event := log.Event{
		Frame: log.NewFrameEvent(bytes.Repeat([]byte("x"), log.MaxFrameCapture+10)),
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	if !strings.Contains(buf.String(), "(truncated)") {
		t.Errorf("expected truncated marker")
	}
	if !strings.Contains(buf.String(), "4106 bytes") {
		t.Errorf("expected full frame size, got: %s", buf.String())
	}
}

func TestFormatMessageEventRequest(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC),
		ConnectionID: "abc12345",
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:    log.MessageTypeRequest,
			ID:      42,
			Method:  wire.MethodObjectsStatus,
			Tag:     "getPrinterData",
			Payload: map[string]any{"objects": map[string]any{"toolhead": nil}},
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"REQUEST",
		"ID: 42",
		"Method: " + wire.MethodObjectsStatus,
		"Tag: getPrinterData",
		`Payload: {"objects":{"toolhead":null}}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatMessageEventResponse(t *testing.T) {
	latency := 1500 * time.Microsecond
	event := log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Message: &log.MessageEvent{
			Type:         log.MessageTypeResponse,
			ID:           42,
			ErrorMessage: "Klippy Request Timed Out",
			Latency:      &latency,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "RESPONSE") {
		t.Errorf("expected RESPONSE label, got: %s", output)
	}
	if !strings.Contains(output, "Error: Klippy Request Timed Out") {
		t.Errorf("expected error message, got: %s", output)
	}
	if !strings.Contains(output, "Latency: 1.500ms") {
		t.Errorf("expected latency, got: %s", output)
	}
}

func TestFormatNotificationOmitsID(t *testing.T) {
	event := log.Event{
		Message: &log.MessageEvent{
			Type:   log.MessageTypeNotification,
			Method: wire.NotifyGcodeResponse,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	if strings.Contains(buf.String(), "ID:") {
		t.Errorf("notification should not show an ID: %s", buf.String())
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	event := log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "READY",
			Reason:   "identity ready",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Entity: CONNECTION") {
		t.Errorf("expected entity, got: %s", output)
	}
	if !strings.Contains(output, "CONNECTED -> READY") {
		t.Errorf("expected transition, got: %s", output)
	}
	if !strings.Contains(output, "Reason: identity ready") {
		t.Errorf("expected reason, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	code := 400
	event := log.Event{
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: "unknown id",
			Code:    &code,
			Context: "response",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"Error", "Layer: WIRE", "Message: unknown id", "Code: 400", "Context: response"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Nanosecond, "0.500us"},
		{1500 * time.Microsecond, "1.500ms"},
		{2500 * time.Millisecond, "2.500s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestShortenConnID(t *testing.T) {
	if got := shortenConnID("abcdefghijkl"); got != "abcdefgh" {
		t.Errorf("shortenConnID = %q", got)
	}
	if got := shortenConnID("abc"); got != "abc" {
		t.Errorf("shortenConnID = %q", got)
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("WIRE"); err != nil || l != log.LayerWire {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("session"); err == nil {
		t.Error("expected error for invalid layer")
	}
	if d, err := ParseDirectionFlag("In"); err != nil || d != log.DirectionIn {
		t.Errorf("ParseDirectionFlag = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("up"); err == nil {
		t.Error("expected error for invalid direction")
	}
	if c, err := ParseCategoryFlag("state"); err != nil || c != log.CategoryState {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("control"); err == nil {
		t.Error("expected error for invalid category")
	}
	if m, err := ParseMessageTypeFlag("notification"); err != nil || m != log.MessageTypeNotification {
		t.Errorf("ParseMessageTypeFlag = %v, %v", m, err)
	}
	if _, err := ParseMessageTypeFlag("event"); err == nil {
		t.Error("expected error for invalid message type")
	}
}

func TestRunViewFilters(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerTransport, Direction: log.DirectionOut, Frame: log.NewFrameEvent([]byte("{}"))},
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionOut, Message: &log.MessageEvent{
			Type: log.MessageTypeRequest, ID: 1, Method: wire.MethodPrinterInfo,
		}},
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionIn, Message: &log.MessageEvent{
			Type: log.MessageTypeNotification, Method: wire.NotifyStatusUpdate,
		}},
	}
	path := createTestLogFile(t, events)

	wireLayer := log.LayerWire
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &wireLayer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if strings.Contains(buf.String(), "Frame") {
		t.Errorf("transport event not filtered: %s", buf.String())
	}
	if strings.Count(buf.String(), "[conn:") != 2 {
		t.Errorf("expected 2 events, got: %s", buf.String())
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{Method: wire.NotifyStatusUpdate}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if strings.Count(buf.String(), "[conn:") != 1 || !strings.Contains(buf.String(), "NOTIFICATION") {
		t.Errorf("expected only the notification, got: %s", buf.String())
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("/nonexistent/file.clog", ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}
