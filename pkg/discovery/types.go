package discovery

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the service advertised by printer hosts.
	ServiceType = "_moonraker._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// BrowseTimeout is the default time FindFirst waits for an answer.
	BrowseTimeout = 10 * time.Second
)

// Discovery errors.
var (
	ErrNotFound       = errors.New("no host found")
	ErrBrowserStopped = errors.New("browser stopped")
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// StringsToTXTRecords parses "key=value" TXT strings. Keys without a value
// map to the empty string.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, r := range records {
		if r == "" {
			continue
		}
		k, v, _ := strings.Cut(r, "=")
		txt[k] = v
	}
	return txt
}

// Host is one discovered printer host.
type Host struct {
	// Instance is the DNS-SD instance name.
	Instance string

	// Hostname is the advertised target host, e.g. "voron.local.".
	Hostname string

	// Port is the API port.
	Port uint16

	// Addresses lists every address seen for the instance, IPv4 first.
	Addresses []string

	// Text holds the TXT records.
	Text TXTRecordMap
}

// Addr returns the address to dial: the first IPv4 address, then any
// address, then the hostname.
func (h *Host) Addr() string {
	for _, a := range h.Addresses {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	if len(h.Addresses) > 0 {
		return h.Addresses[0]
	}
	return strings.TrimSuffix(h.Hostname, ".")
}

// HostPort returns Addr and Port joined for dialing.
func (h *Host) HostPort() string {
	return net.JoinHostPort(h.Addr(), strconv.Itoa(int(h.Port)))
}
