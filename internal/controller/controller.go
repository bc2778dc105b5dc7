// Package controller runs the per-tick handoff of fixture buffers to the
// Art-Net sender and feeds loopback traffic back into the groups.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"sync"

	"artnetsync/internal/artnet"
	"artnetsync/internal/bufferset"
	"artnetsync/internal/logger"
	"artnetsync/internal/routing"
	"artnetsync/internal/udp"
	"golang.org/x/sync/errgroup"
)

// ErrGroupMismatch means the buffer sets and the configured groups drifted apart.
var ErrGroupMismatch = errors.New("controller: buffer set does not match groups")

// Fixtures is the animation layer driven by Tick.
type Fixtures interface {
	// Render writes this tick's channel values into the group payloads.
	Render(groups []*Group)
	// Display commits visual state from the group payloads.
	Display(groups []*Group)
}

// DataHandler is notified of every ArtDmx packet stored for a known group.
// It is called from the receive goroutine and may keep data.
type DataHandler interface {
	HandleGroupData(id uint16, data []byte)
}

// Options настройки контроллера.
type Options struct {
	Port        int    // UDP port of the nodes, artnet.Port when zero.
	PoolSize    int    // number of buffer sets, bufferset.DefaultSize when zero.
	BindNetwork string // CIDR of the interface to send from outside loopback.
	Observers   []DataHandler
}

// link is the sender and receiver of one strategy epoch.
type link struct {
	cancel   context.CancelFunc
	outbox   chan *bufferset.BufferSet
	tx       transmitter
	receiver *udp.Receiver
	done     chan struct{}
	err      error
}

// Controller owns the groups, the buffer pool and the transport.
type Controller struct {
	log      *logger.Log
	opts     Options
	groups   []*Group
	pool     *bufferset.Pool
	received *ReceiveMap
	stats    counters

	mu       sync.Mutex
	ctx      context.Context
	strategy routing.Strategy
	link     *link

	newTransmitter func(local net.IP, port int) (transmitter, error)
}

// New конструктор. Groups are kept for the lifetime of the controller.
func New(log logger.Logger, groups []*Group, opts Options) (*Controller, error) {
	if len(groups) == 0 {
		return nil, errors.New("controller: no groups")
	}
	if opts.Port == 0 {
		opts.Port = artnet.Port
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = bufferset.DefaultSize
	}

	sorted := make([]*Group, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Controller{
		log:      log.Module("controller"),
		opts:     opts,
		groups:   sorted,
		pool:     bufferset.NewPool(opts.PoolSize),
		received: NewReceiveMap(),
		ctx:      context.Background(),
		strategy: routing.Disabled,
		newTransmitter: func(local net.IP, port int) (transmitter, error) {
			return udp.NewSender(local, port)
		},
	}
	for i, g := range sorted {
		if i > 0 && sorted[i-1].ID == g.ID {
			return nil, fmt.Errorf("controller: duplicate group %d", g.ID)
		}
		c.received.Register(g.ID)
	}
	return c, nil
}

// Start applies the initial strategy. ctx bounds every epoch started later.
func (c *Controller) Start(ctx context.Context, s routing.Strategy) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	return c.SetStrategy(s)
}

// Stop tears down the transport and returns the fatal error of the last epoch, if any.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.teardown()
	c.strategy = routing.Disabled
	c.pool.Reset(routing.Disabled, nil)
	return err
}

// SetStrategy is a full reset: the running epoch is stopped, every group's
// destination is resolved again and a fresh pool is seeded.
func (c *Controller) SetStrategy(s routing.Strategy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.teardown(); err != nil {
		c.log.Warnf("previous %s epoch ended with: %v", c.strategy, err)
	}
	c.received.Reset()

	specs := make([]bufferset.Spec, 0, len(c.groups))
	for _, g := range c.groups {
		g.dest = nil
		if s == routing.Disabled {
			continue
		}
		dest, ok := routing.AddressFor(g.Address, s)
		if !ok {
			c.disable()
			return fmt.Errorf("%s: no destination under %s strategy", g, s)
		}
		g.dest = dest
		specs = append(specs, bufferset.Spec{ID: g.ID, Dest: dest, Channels: g.Channels})
	}
	if err := c.pool.Reset(s, specs); err != nil {
		c.disable()
		return err
	}
	c.strategy = s
	if s == routing.Disabled {
		c.log.Info("Art-Net disabled")
		return nil
	}

	l, err := c.dial(s)
	if err != nil {
		c.disable()
		return err
	}
	c.link = l
	c.log.With(logger.Fields{"strategy": s.String(), "groups": len(c.groups)}).Info("Art-Net epoch started")
	return nil
}

func (c *Controller) dial(s routing.Strategy) (*link, error) {
	var local net.IP
	if s != routing.Loopback && c.opts.BindNetwork != "" {
		ip, err := artnet.FindArtNetIP(c.opts.BindNetwork)
		if err != nil {
			return nil, err
		}
		if ip == nil {
			c.log.Warnf("no interface in %s, sending from the default route", c.opts.BindNetwork)
		}
		local = ip
	}

	tx, err := c.newTransmitter(local, c.opts.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to start sender: %w", err)
	}
	rx, err := udp.Listen(c.log, c.opts.Port, routing.SelfFilter(s), c)
	if err != nil {
		tx.Close()
		return nil, fmt.Errorf("failed to start receiver: %w", err)
	}

	ctx, cancel := context.WithCancel(c.ctx)
	g, gctx := errgroup.WithContext(ctx)
	l := &link{
		cancel:   cancel,
		outbox:   make(chan *bufferset.BufferSet, c.pool.Size()),
		tx:       tx,
		receiver: rx,
		done:     make(chan struct{}),
	}
	sender := newDMXSender(c.log, tx, c.pool, l.outbox, c.groups, &c.stats)
	g.Go(func() error { return sender.run(gctx) })
	g.Go(func() error { return rx.Run(gctx) })
	go func() {
		l.err = g.Wait()
		close(l.done)
	}()
	return l, nil
}

// teardown stops the running epoch. Callers hold c.mu.
func (c *Controller) teardown() error {
	l := c.link
	if l == nil {
		return nil
	}
	c.link = nil
	// Retire the epoch first: a set the sender still holds is refused on return.
	c.pool.Reset(routing.Disabled, nil)
	l.cancel()
	l.tx.Close()
	l.receiver.Close()
	<-l.done
	return l.err
}

func (c *Controller) disable() {
	c.strategy = routing.Disabled
	c.pool.Reset(routing.Disabled, nil)
	for _, g := range c.groups {
		g.dest = nil
	}
}

// Tick runs one frame: render, hand the frame to the sender, pull loopback
// data back into the groups, display. It never blocks on the network.
func (c *Controller) Tick(fx Fixtures) error {
	fx.Render(c.groups)

	c.mu.Lock()
	strategy := c.strategy
	err := c.handoff()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if strategy == routing.Loopback {
		for _, g := range c.groups {
			if !c.received.Load(g.ID, g.Data[:]) {
				return fmt.Errorf("%w: %s has no receive slot", ErrGroupMismatch, g)
			}
		}
	}
	fx.Display(c.groups)
	return nil
}

// handoff copies the groups into a free buffer set and queues it. Callers hold c.mu.
func (c *Controller) handoff() error {
	l := c.link
	if l == nil {
		return nil
	}
	select {
	case <-l.done:
		if l.err != nil {
			return l.err
		}
	default:
	}

	b, ok := c.pool.Acquire()
	if !ok {
		c.stats.skipped.Add(1)
		c.log.Warn("no buffers to dequeue; skipping frame")
		return nil
	}
	for _, g := range c.groups {
		e, ok := b.Entry(g.ID)
		if !ok {
			return fmt.Errorf("%w: %s missing from buffer set", ErrGroupMismatch, g)
		}
		e.Data = g.Data
	}

	select {
	case l.outbox <- b:
		c.stats.frames.Add(1)
	default:
		c.pool.Release(b)
		c.stats.skipped.Add(1)
		c.log.Warn("sender queue full; skipping frame")
	}
	return nil
}

// HandleDMX implements udp.Handler.
func (c *Controller) HandleDMX(src netip.AddrPort, p *artnet.DMX) {
	if !c.received.Store(p.Universe, p.Data) {
		c.stats.unknown.Add(1)
		c.log.Warnf("ArtDmx from %s for unknown group %d dropped", src, p.Universe)
		return
	}
	c.stats.received.Add(1)
	for _, o := range c.opts.Observers {
		o.HandleGroupData(p.Universe, p.Data)
	}
}

// Received copies the last payload received for id into dst.
func (c *Controller) Received(id uint16, dst []byte) bool {
	return c.received.Load(id, dst)
}

func (c *Controller) Strategy() routing.Strategy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

// Groups returns the groups in ascending id order.
func (c *Controller) Groups() []*Group {
	return c.groups
}

// Err returns the fatal error that ended the running epoch, nil while it runs.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.link == nil {
		return nil
	}
	select {
	case <-c.link.done:
		return c.link.err
	default:
		return nil
	}
}
