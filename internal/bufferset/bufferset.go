// Package bufferset holds the fixed pool of frame snapshots that circulate
// between the tick loop and the sender worker.
package bufferset

import (
	"net"

	"artnetsync/internal/artnet"
	"artnetsync/internal/routing"
)

// Spec describes one group of a BufferSet, with its destination already resolved.
type Spec struct {
	ID       uint16
	Dest     net.IP
	Channels int
}

// Entry is one group's slot in a BufferSet.
type Entry struct {
	Group    uint16
	Dest     net.IP
	Channels int
	Data     [artnet.MaxChannels]byte
}

// BufferSet is a complete snapshot of every group's payload for one frame.
// It is owned by exactly one of the tick loop, the pool or the sender at a time.
type BufferSet struct {
	epoch   uint64
	class   routing.Class
	entries []Entry
	index   map[uint16]int
}

func newBufferSet(epoch uint64, class routing.Class, specs []Spec) *BufferSet {
	b := &BufferSet{
		epoch:   epoch,
		class:   class,
		entries: make([]Entry, len(specs)),
		index:   make(map[uint16]int, len(specs)),
	}
	for i, s := range specs {
		b.entries[i] = Entry{Group: s.ID, Dest: s.Dest, Channels: s.Channels}
		b.index[s.ID] = i
	}
	return b
}

// Epoch is the pool generation the set was built for.
func (b *BufferSet) Epoch() uint64 { return b.epoch }

// Class is the address class every entry was resolved to.
func (b *BufferSet) Class() routing.Class { return b.class }

func (b *BufferSet) Len() int { return len(b.entries) }

// At returns the i-th entry in ascending group order.
func (b *BufferSet) At(i int) *Entry { return &b.entries[i] }

// Entry looks a group up by id.
func (b *BufferSet) Entry(id uint16) (*Entry, bool) {
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return &b.entries[i], true
}

// IsEligible reports whether b may be queued for sending under s.
func IsEligible(b *BufferSet, s routing.Strategy) bool {
	return b != nil && routing.Accepts(s, b.class)
}
