// Package log captures the JSON-RPC conversation with a printer host.
//
// It is separate from operational logging (slog). Capture produces a
// machine-readable trace of every frame, decoded message, state change and
// protocol error, so a session can be replayed and inspected later.
//
// # Basic Usage
//
//	// Console while developing
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	fl, _ := log.NewFileLogger("/var/log/mainsail/host.clog")
//	cfg.ProtocolLogger = fl
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
//   - Transport: raw websocket frames (FrameEvent)
//   - Wire: decoded requests, responses and notifications (MessageEvent)
//   - Service: connection and readiness state changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .clog
// extension. Read them back with Reader, optionally through a Filter.
package log
