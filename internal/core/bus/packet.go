// If you are AI: This file defines MediaPacket, the unit of media flowing through the registry.
// Packets are immutable once written to the registry; holders share them and out-of-band sinks get clones.

package bus

// AVType is the kind of media a packet carries.
type AVType uint8

const (
	// AVTypeVideo represents a video frame.
	AVTypeVideo AVType = iota
	// AVTypeAudio represents an audio frame.
	AVTypeAudio
	// AVTypeMetadata represents metadata or script data.
	AVTypeMetadata
)

// String returns a human-readable representation of the packet type.
func (t AVType) String() string {
	switch t {
	case AVTypeAudio:
		return "audio"
	case AVTypeVideo:
		return "video"
	case AVTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Codec identifies the elementary stream codec.
type Codec uint8

const (
	CodecUnknown Codec = iota
	CodecH264
	CodecH265
	CodecVP8
	CodecVP9
	CodecAAC
	CodecOpus
	CodecMP3
)

var codecNames = [...]string{"unknown", "h264", "h265", "vp8", "vp9", "aac", "opus", "mp3"}

// String returns the lower-case codec name.
func (c Codec) String() string {
	if int(c) < len(codecNames) {
		return codecNames[c]
	}
	return "unknown"
}

// Format describes how the payload is framed.
type Format uint8

const (
	// FormatRaw is a bare elementary stream payload.
	FormatRaw Format = iota
	// FormatFlv is an FLV tag body including the 1-5 byte codec prefix.
	FormatFlv
	// FormatMpegTs is an MPEG-TS framed payload.
	FormatMpegTs
)

// MediaPacket represents a unit of media flowing through the registry.
// DTS and PTS are in milliseconds.
type MediaPacket struct {
	AVType     AVType
	Codec      Codec
	Format     Format
	DTS        int64
	PTS        int64
	IsKeyFrame bool
	IsSeqHdr   bool
	StreamKey  StreamKey
	StreamID   uint32
	Payload    []byte
}

// Clone creates a deep copy of the packet with its own payload.
func (p *MediaPacket) Clone() *MediaPacket {
	clone := *p
	if p.Payload != nil {
		clone.Payload = append([]byte(nil), p.Payload...)
	}
	return &clone
}

// IsVideoKeyFrame reports whether the packet starts a decodable video GOP.
func (p *MediaPacket) IsVideoKeyFrame() bool {
	return p.AVType == AVTypeVideo && p.IsKeyFrame && !p.IsSeqHdr
}
