package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// ClientConfig configures broadcast discovery.
type ClientConfig struct {
	// BroadcastAddr is where probes are sent
	// (default: 255.255.255.255:5001).
	BroadcastAddr string

	// ReplyAddr is the local address bound for OFFERs (default: ":5002").
	ReplyAddr string

	// Timeout bounds one run (default: 3s).
	Timeout time.Duration

	// ProtocolLogger receives probe and offer events (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// Client runs broadcast discovery.
type Client struct {
	config ClientConfig
	logger *slog.Logger
}

// NewClient creates a discovery client.
func NewClient(config ClientConfig) *Client {
	if config.BroadcastAddr == "" {
		config.BroadcastAddr = net.JoinHostPort(DefaultBroadcastAddr, strconv.Itoa(DefaultDiscoveryPort))
	}
	if config.ReplyAddr == "" {
		config.ReplyAddr = ":" + strconv.Itoa(DefaultReplyPort)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: config,
		logger: logger.With("component", "discovery"),
	}
}

// Discover broadcasts one probe and returns the endpoint from the first
// well-formed OFFER. The reply socket is closed on every return path.
func (c *Client) Discover(ctx context.Context) (*wire.PeerEndpoint, error) {
	runID := uuid.New().String()
	if ctx.Err() != nil {
		return nil, c.finish(runID, "cancelled", ErrCancelled)
	}

	dst, err := net.ResolveUDPAddr("udp4", c.config.BroadcastAddr)
	if err != nil {
		return nil, c.finish(runID, "error", fmt.Errorf("%w: %v", ErrProbeFailed, err))
	}
	conn, err := listenPacket(ctx, c.config.ReplyAddr)
	if err != nil {
		return nil, c.finish(runID, "error", err)
	}
	defer conn.Close()

	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(runCtx, func() { conn.Close() })
	defer stop()

	if _, err := conn.WriteToUDP(wire.EncodeDiscover(), dst); err != nil {
		if ctx.Err() != nil {
			return nil, c.finish(runID, "cancelled", ErrCancelled)
		}
		return nil, c.finish(runID, "error", fmt.Errorf("%w: %v", ErrProbeFailed, err))
	}
	c.logDiscovery(runID, log.DirectionOut, dst.String(), &log.DiscoveryEvent{Type: wire.TypeDiscover})
	c.logger.Debug("probe sent", "to", dst.String())

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil, c.finish(runID, "cancelled", ErrCancelled)
			case runCtx.Err() != nil:
				return nil, c.finish(runID, "timeout", ErrTimeout)
			case errors.Is(err, net.ErrClosed):
				return nil, c.finish(runID, "cancelled", ErrCancelled)
			}
			return nil, c.finish(runID, "error", fmt.Errorf("read offer: %w", err))
		}

		offer, err := wire.DecodeOffer(buf[:n])
		if err != nil {
			// Our own probe echoes back on some stacks; other hosts may
			// send junk. Neither ends discovery.
			c.logger.Debug("ignoring datagram", "from", from.String(), "error", err)
			continue
		}

		ep := offer.Endpoint()
		c.logDiscovery(runID, log.DirectionIn, from.String(), &log.DiscoveryEvent{
			Type:     wire.TypeOffer,
			IP:       offer.IP,
			Port:     offer.Port,
			Hostname: offer.Hostname,
			Adopted:  true,
		})
		c.finish(runID, "found", nil)
		c.logger.Info("host discovered", "endpoint", ep.String())
		return &ep, nil
	}
}

func (c *Client) finish(runID, result string, err error) error {
	metrics.DiscoveryRuns.WithLabelValues("broadcast", result).Inc()
	if err != nil && c.config.ProtocolLogger != nil {
		c.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: runID,
			Layer:        log.LayerDiscovery,
			Category:     log.CategoryError,
			LocalRole:    log.RoleClient,
			Error: &log.ErrorEventData{
				Layer:   log.LayerDiscovery,
				Message: err.Error(),
				Context: result,
			},
		})
	}
	return err
}

func (c *Client) logDiscovery(runID string, dir log.Direction, remote string, ev *log.DiscoveryEvent) {
	if c.config.ProtocolLogger == nil {
		return
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: runID,
		Direction:    dir,
		Layer:        log.LayerDiscovery,
		Category:     log.CategoryDiscovery,
		LocalRole:    log.RoleClient,
		RemoteAddr:   remote,
		Discovery:    ev,
	})
}
