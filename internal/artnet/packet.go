// Package artnet encodes and decodes the Art-Net packets the controller
// exchanges with fixtures. ArtDmx is built here, ArtPoll and ArtPollReply
// wrap the go-artnet packet types.
package artnet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// OpCode identifies the packet variant. It is little-endian on the wire.
type OpCode uint16

const (
	OpPoll      OpCode = 0x2000
	OpPollReply OpCode = 0x2100
	OpDMX       OpCode = 0x5000
)

func (o OpCode) String() string {
	switch o {
	case OpPoll:
		return "ArtPoll"
	case OpPollReply:
		return "ArtPollReply"
	case OpDMX:
		return "ArtDmx"
	default:
		return fmt.Sprintf("OpCode(%#04x)", uint16(o))
	}
}

const (
	// Port is the UDP port every Art-Net node listens on.
	Port = 6454
	// ProtocolVersion is written into every packet we build.
	ProtocolVersion uint16 = 14
	// HeaderLen covers the ID and the opcode.
	HeaderLen = 10
	// MaxChannels is the addressable channel space of one universe.
	MaxChannels = 512
)

// ID is the 8 byte packet identifier "Art-Net\0".
var ID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

var (
	// ErrNotArtNet means the datagram is not ours and should be dropped silently.
	ErrNotArtNet     = errors.New("artnet: not an Art-Net packet")
	ErrUnknownOpCode = errors.New("artnet: unknown opcode")
	ErrTruncated     = errors.New("artnet: truncated packet")
	ErrTooLong       = errors.New("artnet: dmx payload exceeds 512 bytes")
)

// Packet is one of *DMX, *Poll or *PollReply.
type Packet interface {
	OpCode() OpCode
	// AppendBinary appends the encoded packet, header included, to b.
	AppendBinary(b []byte) ([]byte, error)
	// unmarshal parses the whole datagram, header included.
	unmarshal(datagram []byte) error
}

// Encode returns the wire form of p.
func Encode(p Packet) ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, HeaderLen+dmxBodyLen+MaxChannels))
}

// Decode parses one datagram. The returned packet does not alias b.
func Decode(b []byte) (Packet, error) {
	if len(b) < HeaderLen || !bytes.Equal(b[:len(ID)], ID[:]) {
		return nil, ErrNotArtNet
	}

	var p Packet
	switch op := OpCode(binary.LittleEndian.Uint16(b[8:10])); op {
	case OpDMX:
		p = &DMX{}
	case OpPoll:
		p = &Poll{}
	case OpPollReply:
		p = &PollReply{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOpCode, op)
	}

	if err := p.unmarshal(b); err != nil {
		return nil, fmt.Errorf("%s: %w", p.OpCode(), err)
	}
	return p, nil
}

func appendHeader(b []byte, op OpCode) []byte {
	b = append(b, ID[:]...)
	return binary.LittleEndian.AppendUint16(b, uint16(op))
}
