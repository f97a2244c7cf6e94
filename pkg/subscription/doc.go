// Package subscription runs the discovery and subscribe cascade that
// follows a host becoming ready.
//
// # Cascade
//
// On a readiness rising edge the Orchestrator resets the mirrored state,
// records the host identity and sends four discovery requests (object
// list, heater catalog, configuration, root directory) plus one combined
// subscription to the baseline objects.
//
// Each discovery response fans out to at most one further subscription
// and one auxiliary request:
//
//	object list    -> subscribe dynamic objects, snapshot bed_mesh
//	heater catalog -> subscribe heaters, fetch temperature history
//
// Dynamic objects are recognized by Classify, a pure function over the
// first word of an object name. Subscriptions are coalesced into a Set so
// one request covers every object, and an empty Set is never sent.
package subscription
