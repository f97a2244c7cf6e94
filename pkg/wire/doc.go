// Package wire defines the JSON-RPC message shapes exchanged with the printer host.
//
// Every frame on the websocket is a single JSON object. Three shapes exist:
//
//   - Request: client to host, carries method, params and a numeric id
//   - Response: host to client, carries the request id and either result or error
//   - Notification: host to client, carries method and a positional params array, no id
//
// Method names are the host's native RPC surface and are reproduced verbatim.
//
// # Classification
//
// Decode inspects the object keys rather than trusting a type field:
//
//	{"id": 7, "result": {...}}              -> Response
//	{"id": 7, "error": {"message": "..."}}  -> Response (error)
//	{"method": "notify_...", "params": [..]} -> Notification
//
// Anything else is reported as ErrMalformedMessage. Callers log and drop it.
package wire
