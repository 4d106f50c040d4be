package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/envelope"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Default dispatcher timeouts.
const (
	DefaultDialTimeout  = 2 * time.Second
	DefaultReplyTimeout = 3 * time.Second
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// DialTimeout bounds the reliable TCP connect.
	DialTimeout time.Duration

	// ReplyTimeout bounds the whole reliable exchange after connect when the
	// caller's context carries no earlier deadline.
	ReplyTimeout time.Duration

	// MaxMessageSize bounds response frames (default: 64KB).
	MaxMessageSize uint32

	// ProtocolLogger receives frame and envelope events (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// Dispatcher sends envelopes to a peer over the class-appropriate channel.
// It is safe for concurrent use.
type Dispatcher struct {
	config DispatcherConfig
	connID string
	logger *slog.Logger

	// udpMu guards lazy creation of udp only; datagram writes run unlocked.
	udpMu sync.Mutex
	udp   *net.UDPConn
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.ReplyTimeout == 0 {
		config.ReplyTimeout = DefaultReplyTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		config: config,
		connID: uuid.New().String(),
		logger: logger.With("component", "dispatcher"),
	}
}

// ConnID identifies this dispatcher in protocol logs.
func (d *Dispatcher) ConnID() string {
	return d.connID
}

// Send delivers env to ep.
//
// Low-latency sends never fail and return (nil, nil). Reliable sends return
// the host's response on success; otherwise the error matches
// ErrAuthRejected, ErrCommandFailed or ErrTransport.
func (d *Dispatcher) Send(ctx context.Context, ep wire.PeerEndpoint, env *envelope.Envelope, class Class) (*wire.Response, error) {
	payload, err := envelope.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if class == ClassLowLatency {
		d.sendDatagram(ep, payload)
		return nil, nil
	}
	return d.sendReliable(ctx, ep, payload)
}

// Close releases the datagram socket.
func (d *Dispatcher) Close() error {
	d.udpMu.Lock()
	defer d.udpMu.Unlock()
	if d.udp == nil {
		return nil
	}
	err := d.udp.Close()
	d.udp = nil
	return err
}

func (d *Dispatcher) datagramConn() (*net.UDPConn, error) {
	d.udpMu.Lock()
	defer d.udpMu.Unlock()
	if d.udp != nil {
		return d.udp, nil
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	d.udp = conn
	return conn, nil
}

func (d *Dispatcher) sendDatagram(ep wire.PeerEndpoint, payload []byte) {
	err := func() error {
		addr, err := net.ResolveUDPAddr("udp", ep.Addr())
		if err != nil {
			return err
		}
		conn, err := d.datagramConn()
		if err != nil {
			return err
		}
		_, err = conn.WriteToUDP(payload, addr)
		return err
	}()
	if err != nil {
		d.logger.Debug("datagram dropped", "peer", ep.Addr(), "error", err)
		metrics.ClientSends.WithLabelValues(ClassLowLatency.String(), "dropped").Inc()
		return
	}
	metrics.ClientSends.WithLabelValues(ClassLowLatency.String(), "ok").Inc()
	d.logEnvelope(ep, ClassLowLatency, len(payload), nil, nil)
}

func (d *Dispatcher) sendReliable(ctx context.Context, ep wire.PeerEndpoint, payload []byte) (*wire.Response, error) {
	start := time.Now()

	dialer := net.Dialer{Timeout: d.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		return nil, d.transportFailure(ep, "dial", err)
	}
	defer conn.Close()

	deadline := start.Add(d.config.DialTimeout + d.config.ReplyTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, d.transportFailure(ep, "deadline", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	framer := NewFramer(conn, d.config.MaxMessageSize)
	framer.SetLogger(d.config.ProtocolLogger, d.connID, ep.Addr())

	if err := framer.WriteFrame(payload); err != nil {
		return nil, d.transportFailure(ep, "write", ctxErr(ctx, err))
	}
	reply, err := framer.ReadFrame()
	if err != nil {
		return nil, d.transportFailure(ep, "read", ctxErr(ctx, err))
	}
	resp, err := decodeResponse(reply)
	if resp == nil {
		return nil, d.transportFailure(ep, "decode", err)
	}

	latency := time.Since(start)
	metrics.ReliableLatency.Observe(latency.Seconds())
	d.logEnvelope(ep, ClassReliable, len(payload), &resp.Status, &latency)

	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrAuthRejected) {
			outcome = "auth_rejected"
		}
		metrics.ClientSends.WithLabelValues(ClassReliable.String(), outcome).Inc()
		return resp, err
	}
	metrics.ClientSends.WithLabelValues(ClassReliable.String(), "ok").Inc()
	return resp, nil
}

func (d *Dispatcher) transportFailure(ep wire.PeerEndpoint, op string, err error) error {
	metrics.ClientSends.WithLabelValues(ClassReliable.String(), "transport_error").Inc()
	d.logger.Debug("reliable send failed", "peer", ep.Addr(), "op", op, "error", err)
	if d.config.ProtocolLogger != nil {
		d.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: d.connID,
			Direction:    log.DirectionOut,
			Layer:        log.LayerTransport,
			Category:     log.CategoryError,
			LocalRole:    log.RoleClient,
			RemoteAddr:   ep.Addr(),
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: err.Error(),
				Context: op,
			},
		})
	}
	return fmt.Errorf("%w: %s %s: %w", ErrTransport, op, ep.Addr(), err)
}

func (d *Dispatcher) logEnvelope(ep wire.PeerEndpoint, class Class, size int, status *wire.Status, latency *time.Duration) {
	if d.config.ProtocolLogger == nil {
		return
	}
	d.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: d.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleClient,
		RemoteAddr:   ep.Addr(),
		Envelope: &log.EnvelopeEvent{
			Class:   class.String(),
			Size:    size,
			Status:  status,
			Latency: latency,
		},
	})
}

// ctxErr prefers the context's error when the socket was closed by
// cancellation.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}
