// Package protocol implements the danmaku wire framing: a fixed 16-byte
// header followed by an optional body.
package protocol

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed on-wire header length. The protocol calls this
// field "header_length" and expects every frame to carry exactly this value.
const HeaderSize = 16

// MaxBodySize is the largest body this client accepts. Bodies larger than
// this are rejected before the read buffer is grown to hold them.
const MaxBodySize = 65535

// Action codes used by this client.
const (
	ActionHeartbeat  uint32 = 2 // out: heartbeat
	ActionPopularity uint32 = 3 // in: popularity count
	ActionMessage    uint32 = 5 // in: regular danmaku/command message
	ActionJoinRoom   uint32 = 7 // out: join room
	ActionConnectAck uint32 = 8 // in: join acknowledged
)

// ErrHeaderLength is returned by DecodeHeader when the wire's header_length
// field is not the fixed magic value of 16.
var ErrHeaderLength = errors.New("protocol: header_length is not 16")

// ErrFrameTooLarge is returned when a decoded header declares a body larger
// than MaxBodySize.
var ErrFrameTooLarge = errors.New("protocol: frame body exceeds maximum size")

// Header is the decoded form of the 16-byte frame header.
type Header struct {
	PacketLength     uint32
	HeaderLength     uint16
	ProtocolVersion  uint16
	Action           uint32
	Parameter        uint32
}

// BodyLength returns packet_length - header_length, the number of body
// bytes that follow this header on the wire.
func (h Header) BodyLength() int {
	return int(h.PacketLength) - int(h.HeaderLength)
}

// DecodeHeader parses a 16-byte big-endian header and validates the
// header_length magic and the body-size ceiling.
func DecodeHeader(buf [HeaderSize]byte) (Header, error) {
	h := Header{
		PacketLength:    binary.BigEndian.Uint32(buf[0:4]),
		HeaderLength:    binary.BigEndian.Uint16(buf[4:6]),
		ProtocolVersion: binary.BigEndian.Uint16(buf[6:8]),
		Action:          binary.BigEndian.Uint32(buf[8:12]),
		Parameter:       binary.BigEndian.Uint32(buf[12:16]),
	}
	if h.HeaderLength != HeaderSize {
		return Header{}, ErrHeaderLength
	}
	if h.BodyLength() > MaxBodySize {
		return Header{}, ErrFrameTooLarge
	}
	return h, nil
}

// putHeader writes a header in big-endian order into dst[0:16].
func putHeader(dst []byte, packetLength uint32, protocolVersion uint16, action uint32) {
	binary.BigEndian.PutUint32(dst[0:4], packetLength)
	binary.BigEndian.PutUint16(dst[4:6], HeaderSize)
	binary.BigEndian.PutUint16(dst[6:8], protocolVersion)
	binary.BigEndian.PutUint32(dst[8:12], action)
	binary.BigEndian.PutUint32(dst[12:16], 1) // parameter is always 1 on write
}
