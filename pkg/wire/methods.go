package wire

// Request methods understood by the printer host.
const (
	MethodObjectsStatus    = "get_printer_objects_status"
	MethodObjectsList      = "get_printer_objects_list"
	MethodPrinterInfo      = "get_printer_info"
	MethodDirectory        = "get_directory"
	MethodSubscribe        = "post_printer_objects_subscription"
	MethodTemperatureStore = "get_server_temperature_store"
	MethodGcodeHelp        = "get_printer_gcode_help"
	MethodGcodeScript      = "post_printer_gcode_script"
)

// Notification methods pushed by the printer host.
const (
	NotifyStatusUpdate       = "notify_status_update"
	NotifyGcodeResponse      = "notify_gcode_response"
	NotifyKlippyStateChanged = "notify_klippy_state_changed"
	NotifyFilelistChanged    = "notify_filelist_changed"

	// Newer hosts split the state change event into one method per state.
	NotifyKlippyReady        = "notify_klippy_ready"
	NotifyKlippyShutdown     = "notify_klippy_shutdown"
	NotifyKlippyDisconnected = "notify_klippy_disconnected"
)

// BenignTimeoutMessage is the error text the host returns when the firmware
// did not answer a query in time. It is noisy and never fatal.
const BenignTimeoutMessage = "Klippy Request Timed Out"

// RootDirectory is the file root listed during the handshake.
const RootDirectory = "gcodes"
