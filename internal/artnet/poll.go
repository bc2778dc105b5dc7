package artnet

import (
	"bytes"
	"errors"
	"io"

	goartnet "github.com/Haba1234/go-artnet"
	"github.com/Haba1234/go-artnet/packet"
)

// Poll is an ArtPoll discovery request. The wire form comes from go-artnet.
type Poll struct {
	packet.ArtPollPacket
}

// NewPoll конструктор.
func NewPoll() *Poll {
	return &Poll{}
}

func (p *Poll) OpCode() OpCode { return OpPoll }

func (p *Poll) AppendBinary(b []byte) ([]byte, error) {
	// MarshalBinary stamps the header into the packet, so work on a copy.
	pkt := p.ArtPollPacket
	raw, err := pkt.MarshalBinary()
	if err != nil {
		return b, err
	}
	return append(b, raw...), nil
}

func (p *Poll) unmarshal(datagram []byte) error {
	return libError(p.UnmarshalBinary(datagram))
}

// PollReply is the ArtPollReply a node answers an ArtPoll with.
type PollReply struct {
	packet.ArtPollReplyPacket
}

// NewPollReply returns a reply for a node on the standard port.
func NewPollReply(ip [4]byte, shortName string) *PollReply {
	p := &PollReply{}
	p.IPAddress = ip
	p.Port = Port
	copy(p.ShortName[:len(p.ShortName)-1], shortName)
	return p
}

func (p *PollReply) OpCode() OpCode { return OpPollReply }

func (p *PollReply) AppendBinary(b []byte) ([]byte, error) {
	pkt := p.ArtPollReplyPacket
	raw, err := pkt.MarshalBinary()
	if err != nil {
		return b, err
	}
	return append(b, raw...), nil
}

func (p *PollReply) unmarshal(datagram []byte) error {
	return libError(p.UnmarshalBinary(datagram))
}

// Name is the short name without NUL padding.
func (p *PollReply) Name() string {
	b := p.ShortName[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// PortAddress is the Port-Address of the node's first output.
func (p *PollReply) PortAddress() goartnet.Address {
	return goartnet.Address{
		Net:    p.NetSwitch & 0x7f,
		SubUni: p.SubSwitch<<4 | p.SwOut[0]&0x0f,
	}
}

// libError maps short reads from go-artnet onto ErrTruncated.
func libError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrTruncated
	}
	return err
}
