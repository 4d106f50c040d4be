package transport

import (
	"context"
	"net"

	"github.com/lanremote/lanremote-go/pkg/envelope"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Request is one received envelope payload on the host side.
type Request struct {
	// Class is the channel the payload arrived on.
	Class Class

	// ConnID identifies the TCP connection or datagram listener.
	ConnID string

	// RemoteAddr is the sender's address.
	RemoteAddr net.Addr

	// Payload is the raw envelope JSON.
	Payload []byte
}

// Handler processes received envelopes. For reliable requests the returned
// response is written back to the peer; for low-latency requests it is
// discarded. A nil response on the reliable channel is sent as FAILED.
type Handler interface {
	HandleEnvelope(ctx context.Context, req *Request) *wire.Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) *wire.Response

// HandleEnvelope calls f.
func (f HandlerFunc) HandleEnvelope(ctx context.Context, req *Request) *wire.Response {
	return f(ctx, req)
}

// Sender is the client-side view of a Dispatcher.
type Sender interface {
	Send(ctx context.Context, ep wire.PeerEndpoint, env *envelope.Envelope, class Class) (*wire.Response, error)
}

// Listener is a running host-side channel.
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
}

var (
	_ Sender   = (*Dispatcher)(nil)
	_ Listener = (*Server)(nil)
	_ Listener = (*DatagramServer)(nil)
)
