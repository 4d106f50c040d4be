package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Well-known ports.
const (
	// DefaultDiscoveryPort is where hosts listen for DISCOVER probes.
	DefaultDiscoveryPort = 5001

	// DefaultReplyPort is where clients listen for OFFERs.
	DefaultReplyPort = 5002

	// DefaultCommandPort is the host's UDP and TCP command port.
	DefaultCommandPort = 5000
)

// Defaults.
const (
	// DefaultTimeout bounds one discovery run.
	DefaultTimeout = 3 * time.Second

	// DefaultBroadcastAddr is the limited broadcast address used for probes.
	DefaultBroadcastAddr = "255.255.255.255"

	// ServiceType is the mDNS service type advertised by hosts.
	ServiceType = "_lanremote._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// maxDatagram bounds discovery messages.
	maxDatagram = 1024
)

// Discovery errors.
var (
	// ErrTimeout indicates no host answered within the timeout.
	ErrTimeout = errors.New("discovery timed out")

	// ErrCancelled indicates the caller cancelled discovery.
	ErrCancelled = errors.New("discovery cancelled")

	// ErrProbeFailed indicates the DISCOVER probe could not be sent.
	ErrProbeFailed = errors.New("discovery probe failed")
)

// Discoverer finds one host.
type Discoverer interface {
	// Discover returns the first host that answers, or ErrTimeout,
	// ErrCancelled or another error.
	Discover(ctx context.Context) (*wire.PeerEndpoint, error)
}

var (
	_ Discoverer = (*Client)(nil)
	_ Discoverer = (*MDNSBrowser)(nil)
)
