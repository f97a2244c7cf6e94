// Package state holds the client-side mirror of printer host state.
//
// The Store is the single mutation point for everything the client learns
// from the host: object attributes (toolhead, heaters, fans, ...), the gcode
// response log, the mirrored file tree, heater history and the UI settings blob.
//
// # Merge Semantics
//
// Status updates are partial. Merge applies a shallow delta to one object:
//
//	store.Merge("toolhead", map[string]any{"x": 5})
//	// {"x": 1, "y": 2} becomes {"x": 5, "y": 2}
//
// Attributes absent from the delta are left untouched. A later merge of the
// same (object, attribute) pair always overwrites an earlier one. Replace is
// used for snapshot-style responses and discards the previous attributes.
// Reset clears everything and is issued once per readiness rising edge.
//
// # Observers
//
// OnChange registers a listener that is invoked synchronously after each
// mutation. UI collaborators use it to re-render.
package state
