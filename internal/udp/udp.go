// Package udp is the datagram transport of the controller: a send-only
// socket and a cancellable receive loop, never sharing a socket.
package udp

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

func listen(ctx context.Context, ip net.IP, port int) (*net.UDPConn, error) {
	host := ""
	if ip != nil {
		host = ip.String()
	}
	lc := net.ListenConfig{Control: control}
	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("unexpected packet conn %T", pc)
	}
	return conn, nil
}
