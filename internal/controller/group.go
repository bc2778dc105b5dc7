package controller

import (
	"fmt"
	"net"

	"artnetsync/internal/artnet"
	"artnetsync/internal/config"
	goartnet "github.com/Haba1234/go-artnet"
)

// Group is one universe of fixtures. Data is written by the animation layer
// on the tick goroutine only.
type Group struct {
	ID       uint16
	Address  net.IP // Address - адрес узла для стратегии direct.
	Channels int
	Data     [artnet.MaxChannels]byte

	dest net.IP
}

// NewGroup конструктор.
func NewGroup(id uint16, address net.IP, channels int) (*Group, error) {
	if channels < 0 || channels > artnet.MaxChannels {
		return nil, fmt.Errorf("group %d: universe overflow: %d channels", id, channels)
	}
	if address != nil {
		address = address.To4()
		if address == nil {
			return nil, fmt.Errorf("group %d: address is not IPv4", id)
		}
	}
	return &Group{ID: id, Address: address, Channels: channels}, nil
}

// GroupsFromConfig builds the groups described in the configuration file.
func GroupsFromConfig(cfg []config.GroupConf) ([]*Group, error) {
	groups := make([]*Group, 0, len(cfg))
	for _, gc := range cfg {
		var ip net.IP
		if gc.Address != "" {
			if ip = net.ParseIP(gc.Address); ip == nil {
				return nil, fmt.Errorf("group %d: invalid address %q", gc.ID, gc.Address)
			}
		}
		g, err := NewGroup(gc.ID, ip, gc.Channels)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Payload is the channel space the animation layer writes into.
func (g *Group) Payload() []byte {
	return g.Data[:]
}

// Dest is the destination resolved for the active strategy, nil when disabled.
func (g *Group) Dest() net.IP {
	return g.dest
}

// PortAddress splits the id into Net and SubUni.
func (g *Group) PortAddress() goartnet.Address {
	return goartnet.Address{
		Net:    uint8(g.ID>>8) & 0x7f,
		SubUni: uint8(g.ID),
	}
}

func (g *Group) String() string {
	return fmt.Sprintf("group %d (%s)", g.ID, g.PortAddress().String())
}
