package artnet

import (
	"encoding/binary"
	"fmt"
)

// dmxBodyLen is ProtVer(2) Sequence(1) Physical(1) SubUni+Net(2) Length(2).
const dmxBodyLen = 8

// DMX is an ArtDmx packet carrying one universe.
type DMX struct {
	Version  uint16
	Sequence uint8
	Physical uint8
	// Universe is the 15 bit Port-Address: SubUni in the low byte, Net in the high byte.
	Universe uint16
	Data     []byte
}

// NewDMX returns a packet stamped with the current protocol version.
func NewDMX(universe uint16, data []byte) *DMX {
	return &DMX{Version: ProtocolVersion, Universe: universe, Data: data}
}

func (p *DMX) OpCode() OpCode { return OpDMX }

// Length is the number of channel bytes carried.
func (p *DMX) Length() int { return len(p.Data) }

// AppendBinary implements Packet.
// Version and Length are big-endian, the Port-Address is little-endian (SubUni first).
func (p *DMX) AppendBinary(b []byte) ([]byte, error) {
	if len(p.Data) > MaxChannels {
		return b, fmt.Errorf("%w: %d", ErrTooLong, len(p.Data))
	}
	b = appendHeader(b, OpDMX)
	b = binary.BigEndian.AppendUint16(b, p.Version)
	b = append(b, p.Sequence, p.Physical)
	b = binary.LittleEndian.AppendUint16(b, p.Universe)
	b = binary.BigEndian.AppendUint16(b, uint16(len(p.Data)))
	return append(b, p.Data...), nil
}

func (p *DMX) unmarshal(datagram []byte) error {
	body := datagram[HeaderLen:]
	if len(body) < dmxBodyLen {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, dmxBodyLen, len(body))
	}
	p.Version = binary.BigEndian.Uint16(body[0:2])
	p.Sequence = body[2]
	p.Physical = body[3]
	p.Universe = binary.LittleEndian.Uint16(body[4:6])

	length := int(binary.BigEndian.Uint16(body[6:8]))
	if length > MaxChannels {
		return fmt.Errorf("%w: %d", ErrTooLong, length)
	}
	data := body[dmxBodyLen:]
	if len(data) < length {
		return fmt.Errorf("%w: length %d, %d bytes present", ErrTruncated, length, len(data))
	}
	p.Data = make([]byte, length)
	copy(p.Data, data)
	return nil
}

// WireLength returns the ArtDmx length for a universe driving channels fixtures'
// channels: even, between 2 and 512. Zero means a full universe.
func WireLength(channels int) int {
	switch {
	case channels <= 0 || channels >= MaxChannels:
		return MaxChannels
	case channels%2 == 1:
		return channels + 1
	default:
		return channels
	}
}
