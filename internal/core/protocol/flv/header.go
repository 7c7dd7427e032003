// If you are AI: This file builds the FLV stream header that precedes the first tag.

package flv

import (
	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/wire"
)

const (
	flagVideo = 0x01
	flagAudio = 0x04
)

// Header is the FLV file header. The flags tell players which decoders to open.
type Header struct {
	HasAudio bool
	HasVideo bool
}

// HeaderFor derives the track flags from the codecs a stream has carried so far.
// A stream with no known codec yet advertises both tracks.
func HeaderFor(info bus.StreamInfo) Header {
	h := Header{
		HasAudio: info.AudioCodec != bus.CodecUnknown,
		HasVideo: info.VideoCodec != bus.CodecUnknown,
	}
	if !h.HasAudio && !h.HasVideo {
		h.HasAudio, h.HasVideo = true, true
	}
	return h
}

// Bytes returns the 9-byte header. The data offset is the header length.
func (h Header) Bytes() []byte {
	b := make([]byte, FLVHeaderSize)
	copy(b, FLVSignature)
	b[3] = FLVVersion
	if h.HasAudio {
		b[4] |= flagAudio
	}
	if h.HasVideo {
		b[4] |= flagVideo
	}
	wire.PutUint32(b[5:], FLVHeaderSize)
	return b
}

// StreamStart returns the header followed by the zero previous-tag size that opens the tag sequence.
func (h Header) StreamStart() []byte {
	return append(h.Bytes(), 0, 0, 0, 0)
}
