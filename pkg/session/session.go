package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanremote/lanremote-go/pkg/discovery"
	"github.com/lanremote/lanremote-go/pkg/envelope"
	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/metrics"
	"github.com/lanremote/lanremote-go/pkg/pairing"
	"github.com/lanremote/lanremote-go/pkg/transport"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Session errors.
var (
	// ErrNotConnected is returned by Send outside the Connected state.
	// No network I/O takes place.
	ErrNotConnected = errors.New("not connected")

	// ErrBusy is returned by StartDiscovery while a run is in flight.
	ErrBusy = errors.New("discovery already in progress")

	// ErrNoEndpoint is returned by Connect when no host is known.
	ErrNoEndpoint = errors.New("no endpoint")

	// ErrInvalidEndpoint is returned by SetEndpoint for an unusable address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrSuperseded is returned when the session changed state while the
	// call was in flight. The call's outcome was not applied.
	ErrSuperseded = errors.New("superseded by a newer session change")
)

// Intent is one user action to deliver to the host.
type Intent struct {
	// Command names the action (e.g. "click").
	Command string

	// Data is the command payload, marshalled to JSON. Nil sends {}.
	Data any

	// Class selects the channel. Use NewIntent for the default class.
	Class transport.Class
}

// NewIntent builds an intent with the command's default class.
func NewIntent(command string, data any) Intent {
	return Intent{Command: command, Data: data, Class: transport.ClassFor(command)}
}

// Config configures a Session.
type Config struct {
	// Discoverer finds hosts (required).
	Discoverer discovery.Discoverer

	// Sender delivers envelopes (required).
	Sender transport.Sender

	// DeriveKey turns a pairing code into a key (default: pairing.Derive).
	DeriveKey func(pairing.Code) pairing.Key

	// Stamper stamps outgoing messages (default: a new Stamper).
	Stamper *envelope.Stamper

	// ProtocolLogger receives state and envelope events (optional).
	ProtocolLogger log.Logger

	// Logger for operational messages (default: slog.Default()).
	Logger *slog.Logger
}

// Session is the client-side state machine. It is safe for concurrent use.
type Session struct {
	config Config
	id     string
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	epoch    uint64
	endpoint *wire.PeerEndpoint
	key      *pairing.Key
	pending  []transition

	cbMu          sync.RWMutex
	onStateChange []func(oldState, newState State)
}

// New creates a session in the Idle state.
func New(config Config) (*Session, error) {
	if config.Discoverer == nil {
		return nil, errors.New("discoverer is required")
	}
	if config.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if config.DeriveKey == nil {
		config.DeriveKey = pairing.Derive
	}
	if config.Stamper == nil {
		config.Stamper = envelope.NewStamper()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Session{
		config: config,
		id:     id,
		logger: logger.With("component", "session", "session_id", id),
		state:  StateIdle,
	}, nil
}

// ID identifies the session in protocol logs.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the current endpoint, if any.
func (s *Session) Endpoint() (wire.PeerEndpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoint == nil {
		return wire.PeerEndpoint{}, false
	}
	return *s.endpoint, true
}

// KeyFingerprint returns the fingerprint of the current key, or "" if no
// pairing code has been entered.
func (s *Session) KeyFingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return ""
	}
	return s.key.Fingerprint()
}

// OnStateChange registers a callback for state transitions. Callbacks run
// on the goroutine that caused the transition, after the session lock is
// released.
func (s *Session) OnStateChange(fn func(oldState, newState State)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onStateChange = append(s.onStateChange, fn)
}

// StartDiscovery runs one discovery and adopts the result. It is rejected
// with ErrBusy while another run is in flight. A failed run returns to Idle
// and clears the endpoint.
func (s *Session) StartDiscovery(ctx context.Context) (*wire.PeerEndpoint, error) {
	s.mu.Lock()
	if s.state == StateScanning {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	epoch := s.transitionLocked(StateScanning, "discovery started")
	s.unlockAndNotify()

	ep, err := s.config.Discoverer.Discover(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		// Idle never holds an endpoint.
		s.endpoint = nil
		s.transitionLocked(StateIdle, err.Error())
		s.unlockAndNotify()
		return nil, err
	}
	adopted := *ep
	s.endpoint = &adopted
	s.transitionLocked(StateDiscovered, "offer from "+adopted.String())
	s.unlockAndNotify()

	return &adopted, nil
}

// SetEndpoint adopts a manually entered endpoint and moves to Discovered.
// A discovery run in flight is superseded.
func (s *Session) SetEndpoint(ep wire.PeerEndpoint) error {
	if ep.Address == "" || ep.Port == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, ep.Addr())
	}
	s.mu.Lock()
	s.endpoint = &ep
	s.transitionLocked(StateDiscovered, "endpoint set manually")
	s.unlockAndNotify()
	return nil
}

// SetPairingCode derives a key from code and replaces the current key.
// The state is unchanged; later sends use the new key.
func (s *Session) SetPairingCode(code pairing.Code) {
	key := s.config.DeriveKey(code)

	s.mu.Lock()
	old := ""
	if s.key != nil {
		old = s.key.Fingerprint()
		s.key.Zero()
	}
	s.key = &key
	fp := key.Fingerprint()
	state := s.state
	s.mu.Unlock()

	s.logger.Info("pairing key replaced", "key", fp, "state", state.String())
	s.logEvent(log.Event{
		Layer:          log.LayerSession,
		Category:       log.CategoryState,
		KeyFingerprint: fp,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPairing,
			OldState: old,
			NewState: fp,
		},
	})
}

// Connect verifies the host with a reliable ping under the current key.
// Success moves to Connected; rejection or failure moves to Disconnected.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.canConnect() || s.endpoint == nil {
		s.mu.Unlock()
		return ErrNoEndpoint
	}
	if s.key == nil {
		s.mu.Unlock()
		return envelope.ErrNoKey
	}
	key, ep, epoch := *s.key, *s.endpoint, s.epoch
	s.mu.Unlock()

	_, err := s.deliver(ctx, &key, ep, NewIntent(wire.CommandPing, nil))
	if err != nil && !isDeliveryFailure(err) {
		// Local failure (serialization); nothing reached the host.
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.transitionLocked(StateDisconnected, err.Error())
		s.unlockAndNotify()
		return err
	}
	s.transitionLocked(StateConnected, "ping accepted")
	s.unlockAndNotify()
	return nil
}

// Send delivers intent to the connected host. Outside Connected it returns
// ErrNotConnected without any I/O. Low-latency intents never return
// network errors.
func (s *Session) Send(ctx context.Context, intent Intent) (*wire.Response, error) {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	if s.key == nil {
		s.mu.Unlock()
		return nil, envelope.ErrNoKey
	}
	key, ep, epoch := *s.key, *s.endpoint, s.epoch
	s.mu.Unlock()

	resp, err := s.deliver(ctx, &key, ep, intent)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, transport.ErrAuthRejected) || errors.Is(err, transport.ErrTransport) {
		s.mu.Lock()
		if s.epoch == epoch && s.state == StateConnected {
			s.transitionLocked(StateDisconnected, err.Error())
		}
		s.unlockAndNotify()
	}
	return resp, err
}

// deliver seals intent under key and hands it to the sender.
func (s *Session) deliver(ctx context.Context, key *pairing.Key, ep wire.PeerEndpoint, intent Intent) (*wire.Response, error) {
	msg, err := s.config.Stamper.NewMessage(intent.Command, intent.Data)
	if err != nil {
		return nil, err
	}
	env, err := envelope.Encode(key, msg)
	if err != nil {
		return nil, err
	}

	s.logEvent(log.Event{
		Direction:      log.DirectionOut,
		Layer:          log.LayerWire,
		Category:       log.CategoryMessage,
		RemoteAddr:     ep.Addr(),
		KeyFingerprint: key.Fingerprint(),
		Envelope: &log.EnvelopeEvent{
			Class: intent.Class.String(),
		},
	})
	return s.config.Sender.Send(ctx, ep, env, intent.Class)
}

// isDeliveryFailure reports whether err came back from the host or network
// rather than from local sealing.
func isDeliveryFailure(err error) bool {
	return errors.Is(err, transport.ErrTransport) ||
		errors.Is(err, transport.ErrAuthRejected) ||
		errors.Is(err, transport.ErrCommandFailed)
}

type transition struct {
	from, to State
}

// transitionLocked moves to next and bumps the epoch. Must be called with
// s.mu held; callbacks fire in unlockAndNotify.
func (s *Session) transitionLocked(next State, reason string) uint64 {
	prev := s.state
	s.state = next
	s.epoch++
	s.pending = append(s.pending, transition{from: prev, to: next})

	metrics.SessionTransitions.WithLabelValues(next.String()).Inc()
	s.logger.Debug("state change", "from", prev.String(), "to", next.String(), "reason", reason)
	s.logEvent(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	return s.epoch
}

// unlockAndNotify releases s.mu and runs callbacks for queued transitions.
func (s *Session) unlockAndNotify() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	s.cbMu.RLock()
	callbacks := append([]func(State, State){}, s.onStateChange...)
	s.cbMu.RUnlock()
	for _, t := range pending {
		for _, fn := range callbacks {
			fn(t.from, t.to)
		}
	}
}

func (s *Session) logEvent(ev log.Event) {
	if s.config.ProtocolLogger == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.ConnectionID = s.id
	ev.LocalRole = log.RoleClient
	s.config.ProtocolLogger.Log(ev)
}
