// Package discovery finds printer hosts on the local network with
// mDNS/DNS-SD.
//
// Hosts advertise the _moonraker._tcp service in the local domain. One
// host may answer on several interfaces; the browser aggregates those
// answers into a single Host per instance name and drops it once every
// address has been withdrawn.
//
// Example usage:
//
//	b := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
//	host, err := b.FindFirst(ctx)
//	if err == nil {
//		fmt.Println(host.Addr(), host.Port)
//	}
package discovery
