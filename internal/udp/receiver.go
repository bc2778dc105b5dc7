package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"

	"artnetsync/internal/artnet"
	"artnetsync/internal/logger"
)

const maxDatagram = 1500

// Handler receives decoded ArtDmx packets. It is called from the receive loop.
type Handler interface {
	HandleDMX(src netip.AddrPort, p *artnet.DMX)
}

// ReceiverStats is a snapshot of the receive counters.
type ReceiverStats struct {
	Packets  uint64 // datagrams read from the socket
	Filtered uint64 // dropped because they came from this host
	Dropped  uint64 // not Art-Net or malformed
}

// Receiver reads Art-Net datagrams on a well known port.
type Receiver struct {
	log        *logger.Log
	conn       *net.UDPConn
	selfFilter bool
	handler    Handler
	buf        []byte

	packets  atomic.Uint64
	filtered atomic.Uint64
	dropped  atomic.Uint64
}

// Listen binds the receiver to port on every interface.
// With selfFilter datagrams sent from any local address are discarded.
func Listen(log logger.Logger, port int, selfFilter bool, h Handler) (*Receiver, error) {
	conn, err := listen(context.Background(), nil, port)
	if err != nil {
		return nil, fmt.Errorf("failed to bind receiver to port %d: %w", port, err)
	}
	return &Receiver{
		log:        log.Module("udp"),
		conn:       conn,
		selfFilter: selfFilter,
		handler:    h,
		buf:        make([]byte, maxDatagram),
	}, nil
}

// Run reads until ctx is cancelled or the receiver is closed.
// Read errors are logged and the loop carries on.
func (r *Receiver) Run(ctx context.Context) error {
	r.log.Debugf("receive loop started on %s, self filter %v", r.conn.LocalAddr(), r.selfFilter)

	local, err := artnet.LocalAddrs()
	if err != nil {
		r.log.Warnf("self filter disabled: %v", err)
		local = map[netip.Addr]struct{}{}
	}

	stop := context.AfterFunc(ctx, func() { r.conn.Close() })
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, src, err := r.conn.ReadFromUDPAddrPort(r.buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				r.log.Debug("receive loop stopped")
				return nil
			}
			r.log.Warnf("receive failed: %v", err)
			continue
		}
		if n == 0 {
			continue
		}
		r.packets.Add(1)

		if r.selfFilter {
			if _, ok := local[src.Addr().Unmap()]; ok {
				r.filtered.Add(1)
				continue
			}
		}
		r.dispatch(src, r.buf[:n])
	}
}

func (r *Receiver) dispatch(src netip.AddrPort, b []byte) {
	p, err := artnet.Decode(b)
	switch {
	case errors.Is(err, artnet.ErrNotArtNet):
		r.dropped.Add(1)
		r.log.Debugf("non Art-Net datagram from %s dropped", src)
		return
	case err != nil:
		r.dropped.Add(1)
		r.log.Warnf("malformed packet from %s dropped: %v", src, err)
		return
	}

	switch p := p.(type) {
	case *artnet.DMX:
		r.handler.HandleDMX(src, p)
	case *artnet.Poll:
		r.log.Debugf("ArtPoll from %s ignored", src)
	case *artnet.PollReply:
		r.log.Debugf("ArtPollReply from %s (%q, port-address %s) ignored", src, p.Name(), p.PortAddress())
	default:
		r.dropped.Add(1)
		r.log.Warnf("unhandled %s from %s dropped", p.OpCode(), src)
	}
}

func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{
		Packets:  r.packets.Load(),
		Filtered: r.filtered.Load(),
		Dropped:  r.dropped.Load(),
	}
}

// Port is the bound local port.
func (r *Receiver) Port() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

func (r *Receiver) Close() error {
	err := r.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
