package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/log"
)

// maxDatagramSize is the largest UDP payload accepted.
const maxDatagramSize = 65507

// DatagramServerConfig configures the low-latency (UDP) listener.
type DatagramServerConfig struct {
	// Address to listen on (e.g. ":5000").
	Address string

	// Handler processes each datagram (required). Its response is ignored.
	Handler Handler

	// ProtocolLogger for protocol capture (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// DatagramServer receives low-latency envelopes. Datagrams are handled
// sequentially in arrival order.
type DatagramServer struct {
	config DatagramServerConfig
	logger *slog.Logger
	connID string
	conn   *net.UDPConn

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDatagramServer creates a low-latency listener.
func NewDatagramServer(config DatagramServerConfig) (*DatagramServer, error) {
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DatagramServer{
		config: config,
		logger: logger.With("component", "datagram-listener"),
		connID: uuid.New().String(),
	}, nil
}

// Start binds the UDP socket and begins reading.
func (s *DatagramServer) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}
	addr, err := net.ResolveUDPAddr("udp", s.config.Address)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", s.config.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.conn = conn
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.readLoop()

	s.logger.Info("listening", "addr", conn.LocalAddr().String())
	return nil
}

// Stop closes the socket and waits for the read loop to exit.
func (s *DatagramServer) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

// Addr returns the bound address, or nil before Start.
func (s *DatagramServer) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *DatagramServer) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Debug("read failed", "error", err)
			continue
		}
		if n == 0 {
			continue
		}
		payload := append([]byte(nil), buf[:n]...)

		if s.config.ProtocolLogger != nil {
			s.config.ProtocolLogger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: s.connID,
				Direction:    log.DirectionIn,
				Layer:        log.LayerTransport,
				Category:     log.CategoryMessage,
				LocalRole:    log.RoleHost,
				RemoteAddr:   from.String(),
				Frame:        log.NewFrameEvent(payload),
			})
		}

		s.config.Handler.HandleEnvelope(s.ctx, &Request{
			Class:      ClassLowLatency,
			ConnID:     s.connID,
			RemoteAddr: from,
			Payload:    payload,
		})
	}
}
