package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Discovery message types.
const (
	TypeDiscover = "DISCOVER"
	TypeOffer    = "OFFER"
)

// Discovery errors.
var (
	ErrInvalidDiscoveryMessage = errors.New("invalid discovery message")
	ErrUnexpectedType          = errors.New("unexpected discovery message type")
)

// Discover is the broadcast probe.
type Discover struct {
	Type string `json:"type"`
}

// Offer is a host's answer to a probe.
type Offer struct {
	Type     string `json:"type"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Hostname string `json:"hostname"`
}

// EncodeDiscover returns the probe datagram.
func EncodeDiscover() []byte {
	data, _ := json.Marshal(Discover{Type: TypeDiscover})
	return data
}

// IsDiscover reports whether data is a well-formed probe.
func IsDiscover(data []byte) bool {
	var d Discover
	if err := json.Unmarshal(data, &d); err != nil {
		return false
	}
	return d.Type == TypeDiscover
}

// EncodeOffer returns the offer datagram.
func EncodeOffer(o Offer) ([]byte, error) {
	o.Type = TypeOffer
	return json.Marshal(o)
}

// DecodeOffer parses and validates an offer datagram.
func DecodeOffer(data []byte) (*Offer, error) {
	var o Offer
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiscoveryMessage, err)
	}
	if o.Type != TypeOffer {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, o.Type)
	}
	if net.ParseIP(o.IP) == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrInvalidDiscoveryMessage, o.IP)
	}
	if o.Port <= 0 || o.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrInvalidDiscoveryMessage, o.Port)
	}
	return &o, nil
}

// Endpoint converts the offer to a PeerEndpoint.
func (o *Offer) Endpoint() PeerEndpoint {
	return PeerEndpoint{
		Address:     o.IP,
		Port:        uint16(o.Port),
		DisplayName: o.Hostname,
	}
}
