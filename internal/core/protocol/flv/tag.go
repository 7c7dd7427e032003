// If you are AI: This file encodes FLV tags: 11-byte header, body, then the previous-tag size.

package flv

import "streamhub/internal/core/protocol/wire"

// Tag is one FLV tag. Timestamp is in milliseconds; bits above 24 go to the extension byte.
type Tag struct {
	Type      byte
	Timestamp uint32
	Data      []byte
}

// NewTag creates a tag. data is referenced, not copied.
func NewTag(tagType byte, timestamp uint32, data []byte) *Tag {
	return &Tag{Type: tagType, Timestamp: timestamp, Data: data}
}

// Size returns the encoded length, trailing previous-tag size included.
func (t *Tag) Size() int {
	return TagHeaderSize + len(t.Data) + 4
}

// AppendTo appends the encoded tag to dst.
func (t *Tag) AppendTo(dst []byte) []byte {
	dst = append(dst, t.Type)
	dst = wire.AppendUint24(dst, uint32(len(t.Data)))
	dst = wire.AppendUint24(dst, t.Timestamp)
	dst = append(dst, byte(t.Timestamp>>24))
	dst = append(dst, 0, 0, 0) // stream id
	dst = append(dst, t.Data...)
	var prev [4]byte
	wire.PutUint32(prev[:], uint32(TagHeaderSize+len(t.Data)))
	return append(dst, prev[:]...)
}

// Bytes encodes the tag into a new slice.
func (t *Tag) Bytes() []byte {
	return t.AppendTo(make([]byte, 0, t.Size()))
}
