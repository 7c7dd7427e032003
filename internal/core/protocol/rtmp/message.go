// If you are AI: This file handles RTMP message types and protocol control message bodies.
// Control messages are parsed from and built into raw message bodies.

package rtmp

import (
	"streamhub/internal/core/protocol/wire"
)

// Message represents a reassembled RTMP message.
type Message struct {
	CSID      uint32
	TypeID    byte
	Timestamp uint32
	StreamID  uint32
	Body      []byte
}

// IsControl reports whether the message is a protocol control message (types 1-6).
func (m *Message) IsControl() bool {
	return m.TypeID >= MessageTypeSetChunkSize && m.TypeID <= MessageTypeSetPeerBandwidth
}

// ParseSetChunkSize parses a Set Chunk Size message.
func ParseSetChunkSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, protocolErrorf("set chunk size", "body is %d bytes", len(body))
	}
	// The most significant bit is reserved.
	size := wire.Uint32(body[0:4]) & 0x7FFFFFFF
	if size == 0 || size > MaxChunkSize {
		return 0, protocolErrorf("set chunk size", "chunk size %d out of range", size)
	}
	return size, nil
}

// parseUint32Body parses the 4-byte body shared by Abort, Ack and Window Ack Size.
func parseUint32Body(op string, body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, protocolErrorf(op, "body is %d bytes", len(body))
	}
	return wire.Uint32(body[0:4]), nil
}

// ParseSetPeerBandwidth parses a Set Peer Bandwidth message.
func ParseSetPeerBandwidth(body []byte) (uint32, byte, error) {
	if len(body) < 5 {
		return 0, 0, protocolErrorf("set peer bandwidth", "body is %d bytes", len(body))
	}
	return wire.Uint32(body[0:4]), body[4], nil
}

// ParseUserControl parses a User Control message into its event type and event data.
func ParseUserControl(body []byte) (uint16, []byte, error) {
	if len(body) < 2 {
		return 0, nil, protocolErrorf("user control", "body is %d bytes", len(body))
	}
	return wire.Uint16(body[0:2]), body[2:], nil
}

// uint32Body returns a 4-byte big-endian body.
func uint32Body(v uint32) []byte {
	body := make([]byte, 4)
	wire.PutUint32(body, v)
	return body
}

// CreateSetChunkSize creates a Set Chunk Size message body.
func CreateSetChunkSize(size uint32) []byte {
	return uint32Body(size)
}

// CreateWindowAckSize creates a Window Acknowledgement Size message body.
func CreateWindowAckSize(size uint32) []byte {
	return uint32Body(size)
}

// CreateAck creates an Acknowledgement message body.
func CreateAck(sequence uint32) []byte {
	return uint32Body(sequence)
}

// CreateSetPeerBandwidth creates a Set Peer Bandwidth message body.
func CreateSetPeerBandwidth(size uint32, limitType byte) []byte {
	body := make([]byte, 5)
	wire.PutUint32(body[0:4], size)
	body[4] = limitType
	return body
}

// CreateUserControl creates a User Control message body carrying a 4-byte value.
func CreateUserControl(event uint16, value uint32) []byte {
	body := make([]byte, 6)
	wire.PutUint16(body[0:2], event)
	wire.PutUint32(body[2:6], value)
	return body
}

// CreateStreamBegin creates a Stream Begin control message.
func CreateStreamBegin(streamID uint32) []byte {
	return CreateUserControl(ControlStreamBegin, streamID)
}

// ControlMessage wraps a control body in a message on the protocol chunk stream.
func ControlMessage(typeID byte, body []byte) *Message {
	return &Message{CSID: CSIDProtocol, TypeID: typeID, Body: body}
}
