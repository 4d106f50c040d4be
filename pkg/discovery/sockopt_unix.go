//go:build unix

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlBroadcast enables SO_BROADCAST and SO_REUSEADDR on a discovery
// socket before bind.
func controlBroadcast(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
