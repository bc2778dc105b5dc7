package udp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// Sender writes datagrams to a fixed remote port. It keeps no state besides the socket.
type Sender struct {
	conn *net.UDPConn
	port uint16
}

// NewSender конструктор. local may be nil to let the OS choose the interface.
func NewSender(local net.IP, port int) (*Sender, error) {
	conn, err := listen(context.Background(), local, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open sender socket: %w", err)
	}
	return &Sender{conn: conn, port: uint16(port)}, nil
}

// SendTo sends b to ip on the sender's port.
func (s *Sender) SendTo(b []byte, ip net.IP) error {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return fmt.Errorf("invalid destination %v", ip)
	}
	_, err := s.conn.WriteToUDPAddrPort(b, netip.AddrPortFrom(addr.Unmap(), s.port))
	return err
}

func (s *Sender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
