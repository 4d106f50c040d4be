package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lanremote/lanremote-go/pkg/envelope"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/transport"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

var (
	// ErrUnknownCommand indicates a command the host does not implement.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidPayload indicates a known command with unusable data.
	ErrInvalidPayload = errors.New("invalid payload")

	// errThrottled marks a move dropped by the move throttle. It is answered
	// as success.
	errThrottled = errors.New("move throttled")
)

// DefaultMoveInterval is the minimum spacing between executed pointer moves.
const DefaultMoveInterval = 5 * time.Millisecond

// Processor authenticates envelopes and runs their commands. It implements
// transport.Handler for both channels.
type Processor struct {
	executor       Executor
	guard          *ReplayGuard
	protocolLogger log.Logger
	logger         *slog.Logger

	mu  sync.RWMutex
	key *pairing.Key

	moveMu       sync.Mutex
	moveInterval time.Duration
	lastMove     time.Time
	now          func() time.Time
}

// NewProcessor creates a processor. The key may be set later with SetKey;
// until then every envelope is rejected as unauthenticated.
func NewProcessor(executor Executor, guard *ReplayGuard, protocolLogger log.Logger, logger *slog.Logger) *Processor {
	if guard == nil {
		guard = NewReplayGuard(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		executor:       executor,
		guard:          guard,
		protocolLogger: protocolLogger,
		logger:         logger.With("component", "processor"),
		moveInterval:   DefaultMoveInterval,
		now:            time.Now,
	}
}

// SetMoveInterval sets the minimum spacing between executed pointer moves.
// Moves arriving sooner are acknowledged but not executed. Zero disables
// the throttle.
func (p *Processor) SetMoveInterval(d time.Duration) {
	p.moveMu.Lock()
	defer p.moveMu.Unlock()
	p.moveInterval = d
}

// admitMove reports whether a pointer move may run now and, if so, records
// it as the latest executed move.
func (p *Processor) admitMove() bool {
	p.moveMu.Lock()
	defer p.moveMu.Unlock()
	now := p.now()
	if p.moveInterval > 0 && !p.lastMove.IsZero() && now.Sub(p.lastMove) < p.moveInterval {
		return false
	}
	p.lastMove = now
	return true
}

// SetKey replaces the key used to authenticate envelopes.
func (p *Processor) SetKey(key pairing.Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = &key
}

// KeyFingerprint returns the current key fingerprint, or "".
func (p *Processor) KeyFingerprint() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.key == nil {
		return ""
	}
	return p.key.Fingerprint()
}

// HandleEnvelope implements transport.Handler.
func (p *Processor) HandleEnvelope(ctx context.Context, req *transport.Request) *wire.Response {
	start := time.Now()
	command, resp := p.process(ctx, req)

	metrics.EnvelopesReceived.WithLabelValues(req.Class.String(), resp.Status.String()).Inc()
	if p.protocolLogger != nil {
		latency := time.Since(start)
		status := resp.Status
		p.protocolLogger.Log(log.Event{
			Timestamp:      time.Now(),
			ConnectionID:   req.ConnID,
			Direction:      log.DirectionIn,
			Layer:          log.LayerWire,
			Category:       log.CategoryMessage,
			LocalRole:      log.RoleHost,
			RemoteAddr:     addrString(req),
			KeyFingerprint: p.KeyFingerprint(),
			Envelope: &log.EnvelopeEvent{
				Class:   req.Class.String(),
				Size:    len(req.Payload),
				Command: command,
				Status:  &status,
				Latency: &latency,
			},
		})
	}
	if !resp.Status.IsSuccess() {
		p.logger.Debug("envelope rejected", "class", req.Class.String(), "from", addrString(req),
			"status", resp.Status.String(), "error", resp.Error)
	}
	return resp
}

// process returns the authenticated command name ("" if authentication
// did not succeed) and the response.
func (p *Processor) process(ctx context.Context, req *transport.Request) (string, *wire.Response) {
	env, err := envelope.Unmarshal(req.Payload)
	if err != nil {
		return "", wire.NewErrorResponse(wire.StatusMalformed, err)
	}

	p.mu.RLock()
	var key *pairing.Key
	if p.key != nil {
		k := *p.key
		key = &k
	}
	p.mu.RUnlock()

	msg, err := envelope.Decode(key, env)
	switch {
	case errors.Is(err, envelope.ErrAuthenticationFailed), errors.Is(err, envelope.ErrNoKey):
		return "", wire.NewErrorResponse(wire.StatusAuthRejected, envelope.ErrAuthenticationFailed)
	case err != nil:
		return "", wire.NewErrorResponse(wire.StatusMalformed, err)
	}

	if err := p.guard.Check(msg.Timestamp, msg.Nonce); err != nil {
		return msg.Command, wire.NewErrorResponse(wire.StatusStale, err)
	}

	if err := p.dispatch(ctx, msg); err != nil {
		switch {
		case errors.Is(err, errThrottled):
			metrics.MovesThrottled.Inc()
			return msg.Command, &wire.Response{Status: wire.StatusSuccess}
		case errors.Is(err, ErrUnknownCommand):
			return msg.Command, wire.NewErrorResponse(wire.StatusUnknownCommand, err)
		case errors.Is(err, ErrInvalidPayload):
			return msg.Command, wire.NewErrorResponse(wire.StatusMalformed, err)
		}
		return msg.Command, wire.NewErrorResponse(wire.StatusFailed, err)
	}
	metrics.CommandsExecuted.WithLabelValues(msg.Command).Inc()
	return msg.Command, &wire.Response{Status: wire.StatusSuccess}
}

// dispatch validates the payload and calls the executor.
func (p *Processor) dispatch(ctx context.Context, msg *envelope.Message) error {
	switch msg.Command {
	case wire.CommandPing:
		return nil

	case wire.CommandMoveRelative:
		var mv wire.MoveRelative
		if err := decodePayload(msg, &mv); err != nil {
			return err
		}
		if !p.admitMove() {
			return errThrottled
		}
		return p.executor.MoveRelative(ctx, mv.X, mv.Y)

	case wire.CommandClick:
		var c wire.Click
		if err := decodePayload(msg, &c); err != nil {
			return err
		}
		if c.Button == "" {
			c.Button = wire.ButtonLeft
		}
		if c.Button != wire.ButtonLeft && c.Button != wire.ButtonRight {
			return fmt.Errorf("%w: button %q", ErrInvalidPayload, c.Button)
		}
		return p.executor.Click(ctx, c.Button)

	case wire.CommandScroll:
		var s wire.Scroll
		if err := decodePayload(msg, &s); err != nil {
			return err
		}
		if s.Direction != wire.ScrollUp && s.Direction != wire.ScrollDown {
			return fmt.Errorf("%w: direction %q", ErrInvalidPayload, s.Direction)
		}
		return p.executor.Scroll(ctx, s.Direction)

	case wire.CommandTypeText:
		var tt wire.TypeText
		if err := decodePayload(msg, &tt); err != nil {
			return err
		}
		return p.executor.TypeText(ctx, tt.Text)

	case wire.CommandKeyPress:
		var kp wire.KeyPress
		if err := decodePayload(msg, &kp); err != nil {
			return err
		}
		if kp.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidPayload)
		}
		return p.executor.KeyPress(ctx, kp.Key)

	case wire.CommandMedia:
		var m wire.Media
		if err := decodePayload(msg, &m); err != nil {
			return err
		}
		switch m.Action {
		case wire.MediaPlayPause, wire.MediaNext, wire.MediaPrevious:
		default:
			return fmt.Errorf("%w: media action %q", ErrInvalidPayload, m.Action)
		}
		return p.executor.Media(ctx, m.Action)

	case wire.CommandVolume:
		var v wire.Volume
		if err := decodePayload(msg, &v); err != nil {
			return err
		}
		switch v.Action {
		case wire.VolumeUp, wire.VolumeDown, wire.VolumeMute:
		default:
			return fmt.Errorf("%w: volume action %q", ErrInvalidPayload, v.Action)
		}
		return p.executor.Volume(ctx, v.Action)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Command)
}

func decodePayload(msg *envelope.Message, v any) error {
	if err := msg.Unmarshal(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func addrString(req *transport.Request) string {
	if req.RemoteAddr == nil {
		return ""
	}
	return req.RemoteAddr.String()
}

var _ transport.Handler = (*Processor)(nil)
