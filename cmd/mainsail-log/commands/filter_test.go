package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

func readAllEvents(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to read events: %v", err)
	}
	return events
}

func TestFilterByConnectionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-1", Category: log.CategoryMessage},
		{Timestamp: ts, ConnectionID: "conn-2", Category: log.CategoryMessage},
		{Timestamp: ts, ConnectionID: "conn-1", Category: log.CategoryMessage},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.clog")

	count, err := RunFilter(path, FilterOptions{
		Output: outPath,
		ConnID: "conn-1",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}

	for _, event := range readAllEvents(t, outPath) {
		if event.ConnectionID != "conn-1" {
			t.Errorf("expected conn-1, got %s", event.ConnectionID)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, ConnectionID: "c"},
		{Timestamp: base.Add(5 * time.Minute), ConnectionID: "c"},
		{Timestamp: base.Add(10 * time.Minute), ConnectionID: "c"},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.clog")

	count, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:01:00Z",
		TimeEnd:   "2026-01-28T10:10:00Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}

	out := readAllEvents(t, outPath)
	if len(out) != 1 || !out[0].Timestamp.Equal(base.Add(5*time.Minute)) {
		t.Errorf("unexpected events: %+v", out)
	}
}

func TestFilterByMethodAndType(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Message: &log.MessageEvent{Type: log.MessageTypeRequest, ID: 1, Method: wire.MethodPrinterInfo}},
		{Timestamp: ts, Message: &log.MessageEvent{Type: log.MessageTypeResponse, ID: 1, Method: wire.MethodPrinterInfo}},
		{Timestamp: ts, Message: &log.MessageEvent{Type: log.MessageTypeNotification, Method: wire.NotifyStatusUpdate}},
		{Timestamp: ts, Frame: log.NewFrameEvent([]byte("{}"))},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.clog")

	count, err := RunFilter(path, FilterOptions{
		Output:      outPath,
		Method:      wire.MethodPrinterInfo,
		MessageType: "response",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
	out := readAllEvents(t, outPath)
	if out[0].Message == nil || out[0].Message.Type != log.MessageTypeResponse {
		t.Errorf("unexpected event: %+v", out[0])
	}
}

func TestFilterByLayerDirectionCategory(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionIn, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerWire, Direction: log.DirectionOut, Category: log.CategoryMessage},
		{Timestamp: ts, Layer: log.LayerService, Direction: log.DirectionIn, Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.clog")

	count, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		Layer:     "wire",
		Direction: "in",
		Category:  "message",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.clog")

	tests := []FilterOptions{
		{Output: outPath, TimeStart: "yesterday"},
		{Output: outPath, TimeEnd: "10:00"},
		{Output: outPath, Layer: "session"},
		{Output: outPath, Direction: "sideways"},
		{Output: outPath, Category: "snapshot"},
		{Output: outPath, MessageType: "event"},
	}
	for _, opts := range tests {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
