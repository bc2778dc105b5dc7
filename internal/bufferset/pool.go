package bufferset

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"artnetsync/internal/routing"
)

// DefaultSize lets the tick loop and the sender each hold one set.
const DefaultSize = 2

var ErrNoGroups = errors.New("bufferset: no groups")

// Pool is the queue of free BufferSets. Reset starts a new epoch; sets from
// an older epoch or another address class are refused on Release.
type Pool struct {
	mu       sync.Mutex
	size     int
	strategy routing.Strategy
	epoch    uint64
	free     chan *BufferSet
}

// NewPool конструктор. The pool is empty until Reset.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	return &Pool{size: size, strategy: routing.Disabled}
}

// Reset discards every set of the previous epoch and seeds size fresh ones
// built from specs. Under Disabled no set is built.
func (p *Pool) Reset(s routing.Strategy, specs []Spec) error {
	var (
		class routing.Class
		free  chan *BufferSet
	)
	if s != routing.Disabled {
		if len(specs) == 0 {
			return ErrNoGroups
		}
		specs = sorted(specs)
		class = routing.Classify(specs[0].Dest)
		for _, sp := range specs {
			if c := routing.Classify(sp.Dest); c != class || !routing.Accepts(s, c) {
				return fmt.Errorf("bufferset: group %d resolves to %s (%v), strategy %s", sp.ID, c, sp.Dest, s)
			}
		}
		free = make(chan *BufferSet, p.size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.epoch++
	p.strategy = s
	p.free = free
	for i := 0; free != nil && i < p.size; i++ {
		free <- newBufferSet(p.epoch, class, specs)
	}
	return nil
}

// Acquire takes a free set without blocking. ok is false when every set is in flight.
func (p *Pool) Acquire() (b *BufferSet, ok bool) {
	p.mu.Lock()
	free := p.free
	p.mu.Unlock()

	select {
	case b = <-free:
		return b, true
	default:
		return nil, false
	}
}

// Release hands a sent set back. It returns false when the set belongs to a
// previous epoch or does not match the active strategy; such a set is dropped.
func (p *Pool) Release(b *BufferSet) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b == nil || b.epoch != p.epoch || !IsEligible(b, p.strategy) {
		return false
	}
	select {
	case p.free <- b:
		return true
	default:
		// more releases than sets: the caller released twice
		return false
	}
}

func (p *Pool) Strategy() routing.Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strategy
}

func (p *Pool) Epoch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

func (p *Pool) Size() int { return p.size }

// Free is the number of sets waiting to be acquired.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

func sorted(specs []Spec) []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
