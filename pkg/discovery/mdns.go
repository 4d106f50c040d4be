package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// AdvertiserConfig configures mDNS advertisement.
type AdvertiserConfig struct {
	// Interface restricts advertisement to one interface (empty = all).
	Interface string

	// TTL for mDNS records (0 = library default).
	TTL time.Duration
}

// MDNSAdvertiser publishes the host as _lanremote._tcp.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates an advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// Advertise starts (or restarts) advertising info.
func (a *MDNSAdvertiser) Advertise(info *HostInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := info.CommandPort
	if port == 0 {
		port = DefaultCommandPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instanceName(info.Hostname),
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeHostTXT(&HostInfo{Hostname: info.Hostname, CommandPort: port})),
		selectInterfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// BrowserConfig configures mDNS browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one interface (empty = all).
	Interface string

	// Timeout bounds one Discover call (default: 3s).
	Timeout time.Duration

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// MDNSBrowser finds hosts advertised over mDNS.
type MDNSBrowser struct {
	config BrowserConfig
	logger *slog.Logger
}

// NewMDNSBrowser creates a browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MDNSBrowser{config: config, logger: logger.With("component", "mdns-browser")}
}

// Discover returns the first usable host that answers.
func (b *MDNSBrowser) Discover(ctx context.Context) (*wire.PeerEndpoint, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	found, err := b.Browse(runCtx)
	if err != nil {
		metrics.DiscoveryRuns.WithLabelValues("mdns", "error").Inc()
		return nil, err
	}
	select {
	case ep, ok := <-found:
		if ok {
			metrics.DiscoveryRuns.WithLabelValues("mdns", "found").Inc()
			return ep, nil
		}
	case <-runCtx.Done():
	}

	if ctx.Err() != nil {
		metrics.DiscoveryRuns.WithLabelValues("mdns", "cancelled").Inc()
		return nil, ErrCancelled
	}
	metrics.DiscoveryRuns.WithLabelValues("mdns", "timeout").Inc()
	return nil, ErrTimeout
}

// Browse streams each newly seen host until ctx is done. The channel is
// closed when browsing stops.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *wire.PeerEndpoint, error) {
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	out := make(chan *wire.PeerEndpoint)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		gone := (<-chan *zeroconf.ServiceEntry)(removed)
		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				ep, err := entryToEndpoint(entry)
				if err != nil {
					b.logger.Debug("ignoring service", "instance", entry.Instance, "error", err)
					continue
				}
				if seen[entry.Instance] {
					continue
				}
				seen[entry.Instance] = true
				select {
				case out <- ep:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				delete(seen, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	var opts []zeroconf.ClientOption
	if ifaces := selectInterfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}
	go func() {
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Debug("browse ended", "error", err)
		}
	}()

	return out, nil
}

// entryToEndpoint picks an IPv4 address (falling back to IPv6) and the
// command port for a resolved service.
func entryToEndpoint(entry *zeroconf.ServiceEntry) (*wire.PeerEndpoint, error) {
	info, err := DecodeHostTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil, err
	}

	var ip net.IP
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0]
	default:
		return nil, errors.New("no addresses")
	}

	port := info.CommandPort
	if port == 0 {
		port = entry.Port
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	name := info.Hostname
	if name == "" {
		name = entry.Instance
	}
	return &wire.PeerEndpoint{
		Address:     ip.String(),
		Port:        uint16(port),
		DisplayName: name,
	}, nil
}

// selectInterfaces returns the named interface, or nil for all.
func selectInterfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
