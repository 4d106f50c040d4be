package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// ResponderConfig configures the host side of broadcast discovery.
type ResponderConfig struct {
	// Address to listen on for probes (default: ":5001").
	Address string

	// AdvertiseIP is the IP placed in OFFERs. Empty selects, per probe, the
	// local address routed toward the prober.
	AdvertiseIP string

	// CommandPort is the port placed in OFFERs (default: 5000).
	CommandPort int

	// Hostname is the display name placed in OFFERs (default: os.Hostname).
	Hostname string

	// ProtocolLogger receives probe and offer events (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// Responder answers DISCOVER probes with OFFERs.
type Responder struct {
	config ResponderConfig
	logger *slog.Logger
	connID string
	conn   *net.UDPConn

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewResponder creates a responder.
func NewResponder(config ResponderConfig) (*Responder, error) {
	if config.Address == "" {
		config.Address = ":" + strconv.Itoa(DefaultDiscoveryPort)
	}
	if config.CommandPort == 0 {
		config.CommandPort = DefaultCommandPort
	}
	if config.CommandPort < 0 || config.CommandPort > 65535 {
		return nil, fmt.Errorf("invalid command port %d", config.CommandPort)
	}
	if config.AdvertiseIP != "" && net.ParseIP(config.AdvertiseIP) == nil {
		return nil, fmt.Errorf("invalid advertise ip %q", config.AdvertiseIP)
	}
	if config.Hostname == "" {
		name, err := os.Hostname()
		if err != nil {
			name = "lanremote-host"
		}
		config.Hostname = name
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		config: config,
		logger: logger.With("component", "discovery-responder"),
		connID: uuid.New().String(),
	}, nil
}

// Start binds the discovery port and begins answering.
func (r *Responder) Start(ctx context.Context) error {
	if r.running.Load() {
		return errors.New("responder already running")
	}
	conn, err := listenPacket(ctx, r.config.Address)
	if err != nil {
		return err
	}
	r.conn = conn
	r.running.Store(true)

	r.wg.Add(1)
	go r.serve()

	r.logger.Info("answering discovery probes", "addr", conn.LocalAddr().String(), "hostname", r.config.Hostname)
	return nil
}

// Stop closes the socket and waits for the serve loop to exit.
func (r *Responder) Stop() error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}
	err := r.conn.Close()
	r.wg.Wait()
	return err
}

// Addr returns the bound address, or nil before Start.
func (r *Responder) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

func (r *Responder) serve() {
	defer r.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if !r.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger.Debug("read failed", "error", err)
			continue
		}
		if !wire.IsDiscover(buf[:n]) {
			continue
		}
		r.logEvent(log.DirectionIn, from, &log.DiscoveryEvent{Type: wire.TypeDiscover})

		offer, err := r.offerFor(from)
		if err != nil {
			r.logger.Warn("cannot build offer", "to", from.String(), "error", err)
			continue
		}
		data, err := wire.EncodeOffer(*offer)
		if err != nil {
			continue
		}
		if _, err := r.conn.WriteToUDP(data, from); err != nil {
			r.logger.Debug("offer send failed", "to", from.String(), "error", err)
			continue
		}
		metrics.DiscoveryProbesAnswered.Inc()
		r.logEvent(log.DirectionOut, from, &log.DiscoveryEvent{
			Type:     wire.TypeOffer,
			IP:       offer.IP,
			Port:     offer.Port,
			Hostname: offer.Hostname,
		})
	}
}

func (r *Responder) offerFor(from *net.UDPAddr) (*wire.Offer, error) {
	ip := r.config.AdvertiseIP
	if ip == "" {
		local, err := localIPFor(from)
		if err != nil {
			return nil, err
		}
		ip = local.String()
	}
	return &wire.Offer{
		Type:     wire.TypeOffer,
		IP:       ip,
		Port:     r.config.CommandPort,
		Hostname: r.config.Hostname,
	}, nil
}

func (r *Responder) logEvent(dir log.Direction, remote *net.UDPAddr, ev *log.DiscoveryEvent) {
	if r.config.ProtocolLogger == nil {
		return
	}
	r.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: r.connID,
		Direction:    dir,
		Layer:        log.LayerDiscovery,
		Category:     log.CategoryDiscovery,
		LocalRole:    log.RoleHost,
		RemoteAddr:   remote.String(),
		Discovery:    ev,
	})
}
