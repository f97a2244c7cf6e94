// Package files is the HTTP side channel to the host's file manager.
//
// Client reads and uploads single files. Settings stores the UI settings
// blob (gui.json) through the client, accepting commented JSON and
// validating the document shape before it is stored or uploaded. Watcher
// follows a local copy of the blob and pushes edits to the host.
package files
