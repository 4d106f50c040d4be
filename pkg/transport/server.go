package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// DefaultIdleTimeout closes reliable connections that stay silent.
const DefaultIdleTimeout = 10 * time.Second

// ServerConfig configures the reliable (TCP) listener.
type ServerConfig struct {
	// Address to listen on (e.g. ":5000" or "127.0.0.1:0").
	Address string

	// Handler processes each request frame (required).
	Handler Handler

	// MaxMessageSize is the maximum frame size (default: 64KB).
	MaxMessageSize uint32

	// IdleTimeout closes a connection that sends no frame for this long.
	IdleTimeout time.Duration

	// ProtocolLogger for protocol capture (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger

	// OnError is called when an error occurs (optional).
	OnError func(connID string, err error)
}

// Server accepts framed TCP connections and answers each request frame
// with one response frame.
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	listener net.Listener

	conns   map[net.Conn]struct{}
	connsMu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a reliable listener.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: config,
		logger: logger.With("component", "reliable-listener"),
		conns:  make(map[net.Conn]struct{}),
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and all open connections, then waits for
// handlers to return.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()
	err := s.listener.Close()

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.reportError("", fmt.Errorf("accept: %w", err))
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()
	remote := conn.RemoteAddr()

	if !s.track(conn) {
		conn.Close()
		return
	}
	s.logConnState(connID, remote, "", "CONNECTED")

	defer func() {
		conn.Close()
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
		s.logConnState(connID, remote, "CONNECTED", "DISCONNECTED")
	}()

	framer := NewFramer(conn, s.config.MaxMessageSize)
	framer.SetLogger(s.config.ProtocolLogger, connID, remote.String())

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.config.IdleTimeout)); err != nil {
			return
		}
		data, err := framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && s.running.Load() {
				s.reportError(connID, err)
			}
			return
		}

		resp := s.config.Handler.HandleEnvelope(s.ctx, &Request{
			Class:      ClassReliable,
			ConnID:     connID,
			RemoteAddr: remote,
			Payload:    data,
		})
		if resp == nil {
			resp = &wire.Response{Status: wire.StatusFailed}
		}
		out, err := wire.EncodeResponse(resp)
		if err != nil {
			s.reportError(connID, fmt.Errorf("encode response: %w", err))
			return
		}
		if err := framer.WriteFrame(out); err != nil {
			s.reportError(connID, err)
			return
		}
	}
}

// track registers conn so Stop can close it. It refuses once Stop has
// begun, since Stop may already have walked the map.
func (s *Server) track(conn net.Conn) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) reportError(connID string, err error) {
	s.logger.Debug("connection error", "conn_id", connID, "error", err)
	if s.config.OnError != nil {
		s.config.OnError(connID, err)
	}
}

func (s *Server) logConnState(connID string, remote net.Addr, oldState, newState string) {
	if s.config.ProtocolLogger == nil {
		return
	}
	s.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		LocalRole:    log.RoleHost,
		RemoteAddr:   remote.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}
