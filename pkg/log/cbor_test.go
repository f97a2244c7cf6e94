package log

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	latency := 12 * time.Millisecond
	code := 1006
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "request",
			event: Event{
				Timestamp:    now,
				ConnectionID: "c1",
				Direction:    DirectionOut,
				Layer:        LayerWire,
				Category:     CategoryMessage,
				Message: &MessageEvent{
					Type:    MessageTypeRequest,
					ID:      7,
					Method:  "get_printer_info",
					Tag:     "getKlipperInfo",
					Payload: map[string]any{},
				},
			},
		},
		{
			name: "response",
			event: Event{
				Timestamp: now,
				Direction: DirectionIn,
				Layer:     LayerWire,
				Category:  CategoryMessage,
				Message: &MessageEvent{
					Type:         MessageTypeResponse,
					ID:           7,
					ErrorMessage: "Klippy Request Timed Out",
					Latency:      &latency,
				},
			},
		},
		{
			name: "state",
			event: Event{
				Timestamp: now,
				Layer:     LayerService,
				Category:  CategoryState,
				StateChange: &StateChangeEvent{
					Entity:   StateEntityConnection,
					OldState: "READY",
					NewState: "DISCONNECTED",
					Reason:   "connection lost",
				},
			},
		},
		{
			name: "error",
			event: Event{
				Timestamp: now,
				Category:  CategoryError,
				Error:     &ErrorEventData{Layer: LayerTransport, Message: "abnormal close", Code: &code},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent: %v", err)
			}
			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if !got.Timestamp.Equal(tt.event.Timestamp) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, tt.event.Timestamp)
			}
			if got.Category != tt.event.Category || got.Direction != tt.event.Direction {
				t.Errorf("header mismatch: got %+v", got)
			}
			if tt.event.Message != nil {
				if got.Message == nil {
					t.Fatal("Message lost")
				}
				if got.Message.ID != tt.event.Message.ID || got.Message.ErrorMessage != tt.event.Message.ErrorMessage {
					t.Errorf("Message = %+v, want %+v", got.Message, tt.event.Message)
				}
				if tt.event.Message.Latency != nil && (got.Message.Latency == nil || *got.Message.Latency != latency) {
					t.Errorf("Latency = %v, want %v", got.Message.Latency, latency)
				}
			}
			if tt.event.Error != nil && (got.Error == nil || got.Error.Code == nil || *got.Error.Code != code) {
				t.Errorf("Error = %+v", got.Error)
			}
		})
	}
}

func TestJSONPayloadSurvivesCapture(t *testing.T) {
	payload := JSONPayload(json.RawMessage(`{"objects":{"toolhead":null,"extruder":["temperature"]}}`))

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(Event{Message: &MessageEvent{Payload: payload}}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got Event
	if err := NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	m, ok := got.Message.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Payload type = %T, want map[string]any", got.Message.Payload)
	}
	objects, ok := m["objects"].(map[string]any)
	if !ok {
		t.Fatalf("objects type = %T", m["objects"])
	}
	if _, ok := objects["toolhead"]; !ok {
		t.Error("toolhead key lost")
	}
}

func TestJSONPayload(t *testing.T) {
	if JSONPayload(nil) != nil {
		t.Error("empty payload should be nil")
	}
	if got := JSONPayload(json.RawMessage(`not json`)); got != "not json" {
		t.Errorf("invalid payload = %v", got)
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	small := NewFrameEvent([]byte("abc"))
	if small.Size != 3 || small.Truncated {
		t.Errorf("small frame = %+v", small)
	}

	big := NewFrameEvent(make([]byte, MaxFrameCapture+10))
	if big.Size != MaxFrameCapture+10 || !big.Truncated || len(big.Data) != MaxFrameCapture {
		t.Errorf("big frame: size=%d truncated=%t len=%d", big.Size, big.Truncated, len(big.Data))
	}
}

func TestEnumStrings(t *testing.T) {
	checks := map[string]string{
		DirectionOut.String():            "OUT",
		LayerWire.String():               "WIRE",
		CategoryState.String():           "STATE",
		MessageTypeNotification.String(): "NOTIFICATION",
		StateEntityKlippy.String():       "KLIPPY",
		Direction(9).String():            "UNKNOWN",
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
