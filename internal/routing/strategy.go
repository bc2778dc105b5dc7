// Package routing decides where DMX frames are sent.
package routing

import (
	"fmt"
	"net"
	"strings"
)

// Strategy is the active destination class for all groups.
type Strategy int

const (
	Disabled Strategy = iota
	Direct
	Loopback
	Broadcast
)

var (
	LoopbackIP  = net.IPv4(127, 0, 0, 1).To4()
	BroadcastIP = net.IPv4bcast.To4()
)

var strategyNames = map[Strategy]string{
	Disabled:  "disabled",
	Direct:    "direct",
	Loopback:  "loopback",
	Broadcast: "broadcast",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by String. "none" is an alias for disabled.
func ParseStrategy(v string) (Strategy, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "none" {
		return Disabled, nil
	}
	for s, n := range strategyNames {
		if n == v {
			return s, nil
		}
	}
	return Disabled, fmt.Errorf("unknown routing strategy %q", v)
}

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AddressFor resolves the destination of a group whose configured address is direct.
// ok is false when nothing should be sent.
func AddressFor(direct net.IP, s Strategy) (ip net.IP, ok bool) {
	switch s {
	case Loopback:
		return LoopbackIP, true
	case Broadcast:
		return BroadcastIP, true
	case Direct:
		if direct == nil {
			return nil, false
		}
		return direct, true
	default:
		return nil, false
	}
}

// Class is the address class of a destination.
type Class int

const (
	Unicast Class = iota
	LoopbackClass
	BroadcastClass
)

func (c Class) String() string {
	switch c {
	case LoopbackClass:
		return "loopback"
	case BroadcastClass:
		return "broadcast"
	default:
		return "unicast"
	}
}

// Classify returns the address class of ip.
func Classify(ip net.IP) Class {
	switch {
	case ip.IsLoopback():
		return LoopbackClass
	case ip.Equal(net.IPv4bcast):
		return BroadcastClass
	default:
		return Unicast
	}
}

// Accepts reports whether traffic of class c may be sent under s.
func Accepts(s Strategy, c Class) bool {
	switch s {
	case Broadcast:
		return c == BroadcastClass
	case Loopback:
		return c == LoopbackClass
	case Direct:
		return c == Unicast
	default:
		return false
	}
}

// SelfFilter reports whether datagrams from local interfaces are dropped under s.
// In loopback our own traffic is the input.
func SelfFilter(s Strategy) bool {
	return s != Loopback
}
