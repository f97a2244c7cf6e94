// Package interaction correlates JSON-RPC requests with their responses.
//
// A Dispatcher assigns each outgoing request a fresh id. Requests sent
// with a tag are remembered as pending; when a response with the same id
// arrives, the handler registered for that tag runs with the result or
// the error. Requests without a tag are fire-and-forget.
//
//	d := interaction.NewDispatcher(ws, interaction.Config{Logger: logger})
//	d.Handle("getKlipperInfo", func(result json.RawMessage, err error) {
//	    ...
//	})
//	d.Send(wire.MethodPrinterInfo, nil, "getKlipperInfo")
//
//	// for every inbound response
//	d.HandleResponse(resp)
//
// Callers never block on a reply. A response whose id is not pending is
// dropped. The host's "Klippy Request Timed Out" error is logged and
// suppressed. Every other error reaches the tag's handler as a
// *RequestError matching ErrRequestFailed.
package interaction
