// Package transport carries JSON-RPC frames between the client and the
// printer host over a websocket.
//
// The engine only sees two things: the [Transport] interface used to send
// encoded requests, and a channel of [Event] values (open, close, message)
// that it consumes one at a time.
//
// # Reconnection
//
// Reconnection belongs to the transport, not to the connection state
// machine. [WebSocketClient.Run] dials, reads until the socket fails,
// reports the close, waits for the next [Backoff] delay and dials again:
//
//	1s, 2s, 4s, 8s, 16s, 32s, 60s, 60s, ...
//
// The delay resets after every successful dial.
//
// # Keep-Alive
//
// Websocket ping frames are sent every PingInterval. A session with no
// inbound frame (pong or data) for PingInterval+PongTimeout is closed and
// reported as abnormal. This complements the engine's identity heartbeat,
// which probes the host application rather than the socket.
package transport
