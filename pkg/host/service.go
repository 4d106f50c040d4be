package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/transport"
)

// ServiceConfig configures a host Service.
type ServiceConfig struct {
	// PairingCode is the code the client must enter (required).
	PairingCode pairing.Code

	// DeriveKey turns the code into a key (default: pairing.Derive).
	DeriveKey func(pairing.Code) pairing.Key

	// ListenIP restricts the command and discovery listeners to one local
	// IP (empty = all).
	ListenIP string

	// CommandPort is shared by the UDP and TCP listeners (default 5000,
	// 0 after defaults means pick a free port).
	CommandPort int

	// DiscoveryAddr is the discovery listen address (default ":5001").
	// Set DisableDiscovery to run without it.
	DiscoveryAddr    string
	DisableDiscovery bool

	// AdvertiseIP overrides the IP placed in OFFERs.
	AdvertiseIP string

	// Hostname is the advertised display name (default: os.Hostname).
	Hostname string

	// MDNS additionally advertises the host as _lanremote._tcp.
	MDNS bool

	// MDNSInterface restricts mDNS to one interface.
	MDNSInterface string

	// ReplayWindow bounds accepted timestamp skew (default 30s).
	ReplayWindow time.Duration

	// MoveInterval is the minimum spacing between executed pointer moves
	// (default 5ms, negative disables).
	MoveInterval time.Duration

	// IdleTimeout closes silent reliable connections (default 10s).
	IdleTimeout time.Duration

	// Executor performs commands (default: LogExecutor).
	Executor Executor

	// ProtocolLogger for protocol capture (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// Service runs every host-side listener.
type Service struct {
	config    ServiceConfig
	logger    *slog.Logger
	processor *Processor

	mu         sync.Mutex
	running    bool
	reliable   *transport.Server
	datagram   *transport.DatagramServer
	responder  *discovery.Responder
	advertiser *discovery.MDNSAdvertiser
}

// NewService validates config and creates a stopped service.
func NewService(config ServiceConfig) (*Service, error) {
	if config.PairingCode == "" {
		return nil, pairing.ErrEmptyCode
	}
	if config.DeriveKey == nil {
		config.DeriveKey = pairing.Derive
	}
	if config.CommandPort < 0 || config.CommandPort > 65535 {
		return nil, fmt.Errorf("invalid command port %d", config.CommandPort)
	}
	if config.ListenIP != "" && net.ParseIP(config.ListenIP) == nil {
		return nil, fmt.Errorf("invalid listen ip %q", config.ListenIP)
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
	if config.Executor == nil {
		config.Executor = NewLogExecutor(logger)
	}

	p := NewProcessor(config.Executor, NewReplayGuard(config.ReplayWindow), config.ProtocolLogger, logger)
	p.SetKey(config.DeriveKey(config.PairingCode))
	switch {
	case config.MoveInterval > 0:
		p.SetMoveInterval(config.MoveInterval)
	case config.MoveInterval < 0:
		p.SetMoveInterval(0)
	}

	return &Service{
		config:    config,
		logger:    logger.With("component", "host"),
		processor: p,
	}, nil
}

// Start brings up the reliable, datagram and discovery listeners. On error
// anything already started is stopped.
func (s *Service) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return transport.ErrServerRunning
	}
	defer func() {
		if err != nil {
			s.stopLocked()
		}
	}()

	s.reliable, err = transport.NewServer(transport.ServerConfig{
		Address:        net.JoinHostPort(s.config.ListenIP, strconv.Itoa(s.config.CommandPort)),
		Handler:        s.processor,
		IdleTimeout:    s.config.IdleTimeout,
		ProtocolLogger: s.config.ProtocolLogger,
		Logger:         s.logger,
	})
	if err != nil {
		return err
	}
	if err = s.reliable.Start(ctx); err != nil {
		return fmt.Errorf("reliable listener: %w", err)
	}

	// The datagram listener shares the port the TCP listener obtained.
	port := s.reliable.Addr().(*net.TCPAddr).Port
	s.datagram, err = transport.NewDatagramServer(transport.DatagramServerConfig{
		Address:        net.JoinHostPort(s.config.ListenIP, strconv.Itoa(port)),
		Handler:        s.processor,
		ProtocolLogger: s.config.ProtocolLogger,
		Logger:         s.logger,
	})
	if err != nil {
		return err
	}
	if err = s.datagram.Start(ctx); err != nil {
		return fmt.Errorf("datagram listener: %w", err)
	}

	if !s.config.DisableDiscovery {
		s.responder, err = discovery.NewResponder(discovery.ResponderConfig{
			Address:        s.config.DiscoveryAddr,
			AdvertiseIP:    s.config.AdvertiseIP,
			CommandPort:    port,
			Hostname:       s.config.Hostname,
			ProtocolLogger: s.config.ProtocolLogger,
			Logger:         s.logger,
		})
		if err != nil {
			return err
		}
		if err = s.responder.Start(ctx); err != nil {
			return fmt.Errorf("discovery responder: %w", err)
		}
	}

	if s.config.MDNS {
		s.advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: s.config.MDNSInterface})
		if err = s.advertiser.Advertise(&discovery.HostInfo{Hostname: s.config.Hostname, CommandPort: port}); err != nil {
			return fmt.Errorf("mdns: %w", err)
		}
	}

	s.running = true
	s.logger.Info("host ready",
		"command_port", port,
		"hostname", s.config.Hostname,
		"key", s.processor.KeyFingerprint(),
		"mdns", s.config.MDNS)
	return nil
}

// Stop shuts every listener down.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Service) stopLocked() error {
	var errs []error
	if s.advertiser != nil {
		s.advertiser.Stop()
		s.advertiser = nil
	}
	if s.responder != nil {
		errs = append(errs, s.responder.Stop())
		s.responder = nil
	}
	if s.datagram != nil {
		errs = append(errs, s.datagram.Stop())
		s.datagram = nil
	}
	if s.reliable != nil {
		errs = append(errs, s.reliable.Stop())
		s.reliable = nil
	}
	s.running = false
	return errors.Join(errs...)
}

// SetPairingCode replaces the host key. Clients must re-enter the code.
func (s *Service) SetPairingCode(code pairing.Code) {
	s.processor.SetKey(s.config.DeriveKey(code))
	s.logger.Info("pairing code changed", "key", s.processor.KeyFingerprint())
}

// KeyFingerprint returns the fingerprint of the active key.
func (s *Service) KeyFingerprint() string {
	return s.processor.KeyFingerprint()
}

// Running reports whether the listeners are up.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CommandAddr returns the reliable listener address, or nil when stopped.
func (s *Service) CommandAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reliable == nil {
		return nil
	}
	return s.reliable.Addr()
}

// DiscoveryAddr returns the responder address, or nil when not running.
func (s *Service) DiscoveryAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responder == nil {
		return nil
	}
	return s.responder.Addr()
}
