package controller

import (
	"context"
	"fmt"
	"net"

	"artnetsync/internal/artnet"
	"artnetsync/internal/bufferset"
	"artnetsync/internal/logger"
)

// transmitter is the send side of the transport.
type transmitter interface {
	SendTo(b []byte, ip net.IP) error
	Close() error
}

// dmxSender drains the outbox, encodes every entry of a BufferSet and
// hands the set back to the pool.
type dmxSender struct {
	log    *logger.Log
	tx     transmitter
	pool   *bufferset.Pool
	outbox <-chan *bufferset.BufferSet
	stats  *counters

	seq map[uint16]uint8
	pkt artnet.DMX
	buf []byte
}

func newDMXSender(log *logger.Log, tx transmitter, pool *bufferset.Pool, outbox <-chan *bufferset.BufferSet, groups []*Group, stats *counters) *dmxSender {
	seq := make(map[uint16]uint8, len(groups))
	for _, g := range groups {
		seq[g.ID] = 0
	}
	return &dmxSender{
		log:    log,
		tx:     tx,
		pool:   pool,
		outbox: outbox,
		stats:  stats,
		seq:    seq,
		pkt:    artnet.DMX{Version: artnet.ProtocolVersion},
		buf:    make([]byte, 0, artnet.HeaderLen+18+artnet.MaxChannels),
	}
}

func (s *dmxSender) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-s.outbox:
			if err := s.send(ctx, b); err != nil {
				s.log.Errorf("sender stopped: %v", err)
				return err
			}
			if !s.pool.Release(b) {
				s.stats.rejected.Add(1)
				s.log.Debugf("buffer set of epoch %d discarded on return", b.Epoch())
			}
		}
	}
}

func (s *dmxSender) send(ctx context.Context, b *bufferset.BufferSet) error {
	for i := 0; i < b.Len(); i++ {
		e := b.At(i)
		seq, ok := s.seq[e.Group]
		if !ok {
			return fmt.Errorf("%w: no packet prepared for group %d", ErrGroupMismatch, e.Group)
		}
		seq = nextSequence(seq)
		s.seq[e.Group] = seq

		s.pkt.Sequence = seq
		s.pkt.Universe = e.Group
		s.pkt.Data = e.Data[:artnet.WireLength(e.Channels)]

		var err error
		if s.buf, err = s.pkt.AppendBinary(s.buf[:0]); err != nil {
			return err
		}
		if err := s.tx.SendTo(s.buf, e.Dest); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.stats.sendErrors.Add(1)
			s.log.Warnf("DMX. group %d to %v not sent: %v", e.Group, e.Dest, err)
			continue
		}
		s.stats.sent.Add(1)
	}
	return nil
}

// nextSequence wraps 255 to 1; 0 tells receivers sequencing is off.
func nextSequence(s uint8) uint8 {
	if s == 255 {
		return 1
	}
	return s + 1
}
