package transport

import "fmt"

// Transport sends encoded frames to the host.
// Implemented by WebSocketClient.
type Transport interface {
	// Send writes one text frame. It does not wait for a reply.
	Send(data []byte) error
}

// EventSource delivers lifecycle and message events.
// Implemented by WebSocketClient.
type EventSource interface {
	// Events returns the channel events are delivered on. The channel is
	// closed when the source stops.
	Events() <-chan Event
}

// EventType identifies the kind of transport event.
type EventType uint8

const (
	// EventOpen reports a new session.
	EventOpen EventType = iota

	// EventClose reports the end of a session.
	EventClose

	// EventMessage carries one inbound frame.
	EventMessage
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "OPEN"
	case EventClose:
		return "CLOSE"
	case EventMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// Event is one transport occurrence.
type Event struct {
	Type EventType

	// Session identifies the websocket session the event belongs to.
	Session string

	// Data is the frame payload for EventMessage.
	Data []byte

	// Clean and Code describe an EventClose. Clean is true when the peer
	// (or the local side) completed a normal close handshake.
	Clean bool
	Code  int

	// Err is the read error that ended the session, if any.
	Err error
}

// String returns a short description for logs.
func (e Event) String() string {
	switch e.Type {
	case EventClose:
		return fmt.Sprintf("CLOSE(clean=%t code=%d)", e.Clean, e.Code)
	case EventMessage:
		return fmt.Sprintf("MESSAGE(%d bytes)", len(e.Data))
	default:
		return e.Type.String()
	}
}

// Close codes used when no close frame was received.
const (
	CloseNormal   = 1000
	CloseAbnormal = 1006
)
