package log

import (
	"time"
)

// Event is one captured protocol occurrence.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the websocket session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// Host is the websocket URL of the peer.
	Host string `cbor:"6,keyasint,omitempty"`

	// Exactly one payload is set.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates message flow.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where an event was captured.
type Layer uint8

const (
	// LayerTransport is the websocket frame layer.
	LayerTransport Layer = 0
	// LayerWire is the decoded JSON-RPC layer.
	LayerWire Layer = 1
	// LayerService is the engine layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 2
	CategoryError   Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent is a raw websocket text frame.
type FrameEvent struct {
	Size int    `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated is set when Data holds only a prefix of the frame.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxFrameCapture is the number of frame bytes kept by NewFrameEvent.
const MaxFrameCapture = 4096

// NewFrameEvent captures a frame, truncating large payloads.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameCapture {
		fe.Data = append([]byte(nil), data[:MaxFrameCapture]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// MessageEvent is a decoded JSON-RPC message.
type MessageEvent struct {
	Type MessageType `cbor:"1,keyasint"`

	// ID correlates requests and responses. Zero for notifications.
	ID uint64 `cbor:"2,keyasint"`

	// Method is set for requests and notifications, and for responses
	// whose request was still pending.
	Method string `cbor:"3,keyasint,omitempty"`

	// Tag names the response handler of a tagged request.
	Tag string `cbor:"4,keyasint,omitempty"`

	// Payload is the params or result in CBOR-compatible form.
	Payload any `cbor:"5,keyasint,omitempty"`

	// ErrorMessage is the error text of a failed response.
	ErrorMessage string `cbor:"6,keyasint,omitempty"`

	// Latency from request send to response receipt, responses only.
	Latency *time.Duration `cbor:"7,keyasint,omitempty"`
}

// MessageType distinguishes requests, responses and notifications.
type MessageType uint8

const (
	MessageTypeRequest      MessageType = 0
	MessageTypeResponse     MessageType = 1
	MessageTypeNotification MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent records a lifecycle transition.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity names what changed state.
type StateEntity uint8

const (
	// StateEntityConnection is the Disconnected/Connected/Ready machine.
	StateEntityConnection StateEntity = 0
	// StateEntityKlippy is the firmware readiness reported by the host.
	StateEntityKlippy StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityKlippy:
		return "KLIPPY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData is an error at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Code    *int   `cbor:"3,keyasint,omitempty"`

	// Context describes the operation that failed.
	Context string `cbor:"4,keyasint,omitempty"`
}
