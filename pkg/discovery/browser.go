package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Browser provides mDNS host browsing.
type Browser interface {
	// Browse streams hosts as they are found. The channel is closed when
	// ctx is cancelled or the browser is stopped.
	Browse(ctx context.Context) (<-chan *Host, error)

	// FindFirst returns the first host found, or ErrNotFound after the
	// browse timeout.
	FindFirst(ctx context.Context) (*Host, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// ServiceType overrides the browsed service.
	ServiceType string

	// BrowseTimeout bounds FindFirst.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		ServiceType:   ServiceType,
		BrowseTimeout: BrowseTimeout,
	}
}

// browseFunc runs one zeroconf browse. Tests replace it to feed entries
// directly.
type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
	browse browseFunc

	mu      sync.Mutex
	stopped bool
	cancels []context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.ServiceType == "" {
		config.ServiceType = ServiceType
	}
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &MDNSBrowser{
		config: config,
		browse: zeroconfBrowse,
	}
}

// Browse searches for hosts. Answers are aggregated by instance name:
// addresses from multiple interfaces are combined into a single Host.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Host, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil, ErrBrowserStopped
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *Host)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go aggregate(ctx, entries, removed, out)
	go func() {
		_ = b.browse(ctx, b.config.ServiceType, Domain, entries, removed, b.browserOptions()...)
	}()
	return out, nil
}

// FindFirst returns the first host that answers.
func (b *MDNSBrowser) FindFirst(ctx context.Context) (*Host, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	hosts, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case h, ok := <-hosts:
		if !ok {
			return nil, ErrNotFound
		}
		return h, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrNotFound
		}
		return nil, ctx.Err()
	}
}

// Stop cancels every active browse. Later calls to Browse fail.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// aggregate turns zeroconf answers into hosts. A host is emitted once, when
// its instance is first seen; later answers only add addresses.
func aggregate(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry, out chan<- *Host) {
	defer close(out)

	hosts := make(map[string]*Host)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			h := entryToHost(entry)
			if h == nil {
				continue
			}
			if existing, found := hosts[h.Instance]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, h.Addresses)
				continue
			}
			hosts[h.Instance] = h
			select {
			case out <- h:
			case <-ctx.Done():
				return
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := hosts[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry)
				if len(existing.Addresses) == 0 {
					delete(hosts, entry.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// entryToHost converts a zeroconf entry. Entries without a port are
// incomplete and skipped.
func entryToHost(entry *zeroconf.ServiceEntry) *Host {
	if entry == nil || entry.Instance == "" || entry.Port <= 0 {
		return nil
	}
	return &Host{
		Instance:  entry.Instance,
		Hostname:  entry.HostName,
		Port:      uint16(entry.Port),
		Addresses: entryAddresses(entry),
		Text:      StringsToTXTRecords(entry.Text),
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the entry's addresses from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, addr := range entryAddresses(entry) {
		toRemove[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
