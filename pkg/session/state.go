package session

// State is the session lifecycle state.
type State uint8

const (
	// StateIdle is the initial state and where failed discovery returns.
	StateIdle State = iota

	// StateScanning indicates a discovery run is in flight.
	StateScanning

	// StateDiscovered indicates an endpoint is known but not yet verified.
	StateDiscovered

	// StateConnected indicates the host accepted a probe with the current key.
	StateConnected

	// StateDisconnected indicates the host rejected the key or became
	// unreachable.
	StateDisconnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateScanning:
		return "SCANNING"
	case StateDiscovered:
		return "DISCOVERED"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// canConnect reports whether Connect is allowed from s.
func (s State) canConnect() bool {
	switch s {
	case StateDiscovered, StateConnected, StateDisconnected:
		return true
	}
	return false
}
