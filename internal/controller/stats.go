package controller

import "sync/atomic"

type counters struct {
	frames     atomic.Uint64
	skipped    atomic.Uint64
	sent       atomic.Uint64
	sendErrors atomic.Uint64
	rejected   atomic.Uint64
	received   atomic.Uint64
	unknown    atomic.Uint64
}

// Stats is a snapshot of the controller counters since New.
type Stats struct {
	Frames     uint64 // buffer sets handed to the sender
	Skipped    uint64 // ticks with no free buffer set
	Sent       uint64 // ArtDmx datagrams written
	SendErrors uint64
	Rejected   uint64 // buffer sets the sender held when their epoch was torn down
	Received   uint64 // ArtDmx stored in the receive map
	Unknown    uint64 // ArtDmx for groups we do not drive
}

func (c *Controller) Stats() Stats {
	return Stats{
		Frames:     c.stats.frames.Load(),
		Skipped:    c.stats.skipped.Load(),
		Sent:       c.stats.sent.Load(),
		SendErrors: c.stats.sendErrors.Load(),
		Rejected:   c.stats.rejected.Load(),
		Received:   c.stats.received.Load(),
		Unknown:    c.stats.unknown.Load(),
	}
}
