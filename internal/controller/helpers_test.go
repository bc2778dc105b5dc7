package controller

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"artnetsync/internal/artnet"
	"artnetsync/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func testLogger() (*logger.Log, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logger.Wrap(l), hook
}

func warnings(hook *test.Hook, msg string) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == msg {
			n++
		}
	}
	return n
}

func mustGroup(t *testing.T, id uint16, addr string, channels int) *Group {
	t.Helper()
	var ip net.IP
	if addr != "" {
		ip = net.ParseIP(addr)
	}
	g, err := NewGroup(id, ip, channels)
	require.NoError(t, err)
	return g
}

type sentPacket struct {
	dest net.IP
	pkt  *artnet.DMX
}

// fakeTx records packets. With a gate every send waits until the gate is closed.
type fakeTx struct {
	gate     chan struct{}
	closed   chan struct{}
	once     sync.Once
	attempts atomic.Int32

	mu   sync.Mutex
	sent []sentPacket
}

func newFakeTx(stalled bool) *fakeTx {
	f := &fakeTx{closed: make(chan struct{})}
	if stalled {
		f.gate = make(chan struct{})
	}
	return f
}

func (f *fakeTx) SendTo(b []byte, ip net.IP) error {
	f.attempts.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-f.closed:
			return net.ErrClosed
		}
	}
	p, err := artnet.Decode(b)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPacket{dest: ip, pkt: p.(*artnet.DMX)})
	return nil
}

func (f *fakeTx) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTx) resume() { close(f.gate) }

func (f *fakeTx) packets() []sentPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentPacket, len(f.sent))
	copy(out, f.sent)
	return out
}

// unreachableTx fails every datagram for one destination.
type unreachableTx struct {
	*fakeTx
	refuse net.IP
}

func (u unreachableTx) SendTo(b []byte, ip net.IP) error {
	if ip.Equal(u.refuse) {
		return errors.New("sendto: network is unreachable")
	}
	return u.fakeTx.SendTo(b, ip)
}

// delayedTx holds every datagram back so a tick can never read its own frame.
type delayedTx struct {
	transmitter
	delay time.Duration
}

func (d delayedTx) SendTo(b []byte, ip net.IP) error {
	time.Sleep(d.delay)
	return d.transmitter.SendTo(b, ip)
}

// scripted is a Fixtures whose Render is driven by a function of the tick number.
type scripted struct {
	tick    int
	write   func(tick int, groups []*Group)
	written [][]byte
	shown   [][]byte
}

func (s *scripted) Render(groups []*Group) {
	if s.write != nil {
		s.write(s.tick, groups)
	}
	s.written = append(s.written, append([]byte(nil), groups[0].Data[:4]...))
}

func (s *scripted) Display(groups []*Group) {
	s.shown = append(s.shown, append([]byte(nil), groups[0].Data[:4]...))
	s.tick++
}
