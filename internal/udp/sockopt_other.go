//go:build !unix

package udp

import "syscall"

// The runtime already sets SO_BROADCAST on datagram sockets here.
func control(_, _ string, _ syscall.RawConn) error {
	return nil
}
