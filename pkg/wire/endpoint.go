package wire

import (
	"net"
	"strconv"
)

// PeerEndpoint identifies a host offering remote control.
type PeerEndpoint struct {
	// Address is the host IP address.
	Address string

	// Port is the command port, shared by the UDP and TCP channels.
	Port uint16

	// DisplayName is the host's advertised name.
	DisplayName string
}

// Addr returns "address:port" suitable for net.Dial.
func (p PeerEndpoint) Addr() string {
	return net.JoinHostPort(p.Address, strconv.Itoa(int(p.Port)))
}

// String returns a human-readable form.
func (p PeerEndpoint) String() string {
	if p.DisplayName == "" {
		return p.Addr()
	}
	return p.DisplayName + " (" + p.Addr() + ")"
}
