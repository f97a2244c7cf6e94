package interaction

// Response handler tags.
const (
	TagHelpData       = "getHelpData"
	TagDirectoryRoot  = "getDirectoryRoot"
	TagKlipperInfo    = "getKlipperInfo"
	TagObjectInfo     = "getObjectInfo"
	TagHeatersInfo    = "getHeatersInfo"
	TagPrinterConfig  = "getPrinterConfig"
	TagPrinterData    = "getPrinterData"
	TagHeatersHistory = "getHeatersHistory"
	TagDirectory      = "getDirectory"
	TagHelpList       = "getHelpList"
	TagSendGcode      = "sendGcode"
)

// Requester sends tagged requests. Implemented by Dispatcher.
type Requester interface {
	Send(method string, params any, tag string) (uint64, error)
}

var _ Requester = (*Dispatcher)(nil)
