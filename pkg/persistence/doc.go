// Package persistence keeps local runtime state across restarts.
//
// BlobStore caches named blobs (such as the last fetched UI settings) in a
// state directory. ClientStateStore remembers the last host the client
// synchronized with, so a restart can reconnect without discovery.
package persistence
