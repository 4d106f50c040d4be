package log

import (
	"time"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the session or connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the client or the host.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// KeyFingerprint identifies the session key in use.
	KeyFingerprint string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Envelope    *EnvelopeEvent    `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Discovery   *DiscoveryEvent   `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the datagram/frame layer.
	LayerTransport Layer = 0
	// LayerWire is the envelope layer.
	LayerWire Layer = 1
	// LayerSession is the session state machine.
	LayerSession Layer = 2
	// LayerDiscovery is the broadcast discovery exchange.
	LayerDiscovery Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	case LayerDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame or envelope.
	CategoryMessage Category = 0
	// CategoryDiscovery indicates a probe or offer.
	CategoryDiscovery Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is the client or the host.
type Role uint8

const (
	// RoleClient indicates the handheld client.
	RoleClient Role = 0
	// RoleHost indicates the controlled host.
	RoleHost Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "CLIENT"
	case RoleHost:
		return "HOST"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures frame sizes at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including any length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// EnvelopeEvent captures an envelope sent or received.
type EnvelopeEvent struct {
	// Class is the transport class ("low-latency" or "reliable").
	Class string `cbor:"1,keyasint"`

	// Size is the serialized envelope size in bytes.
	Size int `cbor:"2,keyasint"`

	// Command is recorded only by the receiver, after authentication.
	Command string `cbor:"3,keyasint,omitempty"`

	// Status is the reliable response status, if any.
	Status *wire.Status `cbor:"4,keyasint,omitempty"`

	// Latency is the reliable round trip or host processing time.
	Latency *time.Duration `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures session and discovery lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 0
	// StateEntityConnection indicates a transport connection change.
	StateEntityConnection StateEntity = 1
	// StateEntityPairing indicates a pairing key change.
	StateEntityPairing StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityPairing:
		return "PAIRING"
	default:
		return "UNKNOWN"
	}
}

// DiscoveryEvent captures a probe or an offer.
type DiscoveryEvent struct {
	// Type is "DISCOVER" or "OFFER".
	Type string `cbor:"1,keyasint"`

	// IP, Port and Hostname are set for offers.
	IP       string `cbor:"2,keyasint,omitempty"`
	Port     int    `cbor:"3,keyasint,omitempty"`
	Hostname string `cbor:"4,keyasint,omitempty"`

	// Adopted is true for the offer that won discovery.
	Adopted bool `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
