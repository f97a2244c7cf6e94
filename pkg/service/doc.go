// Package service ties the synchronization client together.
//
// # Engine
//
// Engine owns the connection manager, the request dispatcher, the
// notification router, the subscription orchestrator and the state store.
// It is the only writer to the store: every transport event, heartbeat tick
// and background result is applied from the Run loop, one at a time.
//
// Example usage:
//
//	ws, _ := transport.NewWebSocketClient(transport.DefaultConfig("printer.local", 7125))
//	engine := service.NewEngine(ws, service.DefaultConfig())
//	go ws.Run(ctx)
//	engine.Run(ctx, ws.Events())
//
// # Readiness
//
// On open the engine runs the bootstrap handshake and probes the host
// identity. The first identity that reports the firmware as ready is a
// rising edge: the store is reset and the discovery cascade starts. While
// ready, the identity is re-queried on every heartbeat tick.
//
// # Settings
//
// When the root file listing contains the UI settings file and a
// SettingsStore is configured, the blob is fetched in the background and
// stored through the loop.
package service
