// If you are AI: This file provides FLV muxing helpers for converting media packets to FLV tags.
// Muxing preserves original payloads without transcoding.

package flv

import (
	"streamhub/internal/core/bus"
)

// TagType returns the FLV tag type for a packet type.
func TagType(t bus.AVType) byte {
	switch t {
	case bus.AVTypeAudio:
		return TagTypeAudio
	case bus.AVTypeVideo:
		return TagTypeVideo
	default:
		return TagTypeScript
	}
}

// MuxPacket converts a media packet to an FLV tag.
// Returns nil for packets that are not FLV framed.
// Allocation: Creates tag structure, reuses payload slice.
func MuxPacket(pkt *bus.MediaPacket) *Tag {
	if pkt == nil || pkt.Format != bus.FormatFlv {
		return nil
	}
	return NewTag(TagType(pkt.AVType), uint32(pkt.DTS), pkt.Payload)
}

// Muxer writes a continuous FLV stream with timestamps rebased to the first packet.
type Muxer struct {
	base    int64
	started bool
}

// Tag converts pkt into tag bytes relative to the first muxed packet.
// Headers sent before any media are stamped 0.
func (m *Muxer) Tag(pkt *bus.MediaPacket) []byte {
	tag := MuxPacket(pkt)
	if tag == nil {
		return nil
	}
	if pkt.IsSeqHdr || pkt.AVType == bus.AVTypeMetadata {
		if !m.started {
			tag.Timestamp = 0
			return tag.Bytes()
		}
	} else if !m.started {
		m.base = pkt.DTS
		m.started = true
	}
	ts := pkt.DTS - m.base
	if ts < 0 {
		ts = 0
	}
	tag.Timestamp = uint32(ts)
	return tag.Bytes()
}
