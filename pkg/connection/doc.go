// Package connection tracks the lifecycle of the session with a printer host.
//
// # States
//
//	DISCONNECTED -> CONNECTED -> READY
//	      ^             |          |
//	      +-------------+----------+
//
// CONNECTED is entered when the transport opens (or when a message arrives
// while the manager still believes it is disconnected). READY is entered
// when the host's identity reports a ready firmware for the first time
// since it was last not ready. DISCONNECTED is reachable from every state;
// every other backward move is ignored.
//
// # Handshake
//
// On open the manager requests the operational status, the root directory
// listing and the host identity.
//
// # Heartbeat
//
// While READY a ticker fires every HeartbeatInterval (5s by default) and
// each tick reissues the identity request. Some disconnects are never
// reported by a close event; the heartbeat is the probe of last resort.
// Outstanding identity requests are not cancelled, so several may be in
// flight at once. The ticker stops on every transition out of READY.
//
// Reconnecting is the transport's job. The manager only classifies and
// reports closes.
package connection
