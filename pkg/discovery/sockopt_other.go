//go:build !unix

package discovery

import "syscall"

// controlBroadcast is a no-op where the runtime already permits broadcast.
func controlBroadcast(_, _ string, _ syscall.RawConn) error {
	return nil
}
