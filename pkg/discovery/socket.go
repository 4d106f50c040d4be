package discovery

import (
	"context"
	"fmt"
	"net"
)

// listenPacket binds a UDP socket with broadcast enabled.
func listenPacket(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: controlBroadcast}
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return pc.(*net.UDPConn), nil
}

// localIPFor returns the local address the kernel would use to reach peer.
// No packet is sent.
func localIPFor(peer *net.UDPAddr) (net.IP, error) {
	conn, err := net.DialUDP("udp4", nil, peer)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}
