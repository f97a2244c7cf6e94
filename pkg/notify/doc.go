// Package notify routes host notifications to state updates.
//
// Routing uses two finite tables. The method table maps a notification
// method to a handler. The file action table maps the action field of a
// notify_filelist_changed event to a file tree mutation. Anything outside
// either table is logged and ignored; routing never aborts the event loop.
//
//	notify_status_update        -> merge object deltas
//	notify_gcode_response       -> append to the gcode log
//	notify_klippy_state_changed -> readiness update
//	notify_filelist_changed     -> file action table
//	  added | removed | file_move | add_directory | delete_directory
package notify
