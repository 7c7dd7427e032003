// If you are AI: This file defines FLV protocol constants and tag types.

package flv

// FLV file signature
const FLVSignature = "FLV"

// FLV version
const FLVVersion = 1

// FLV header size
const FLVHeaderSize = 9

// Previous tag size (4 bytes) before first tag
const FirstPreviousTagSize = 0

// TagHeaderSize is the fixed size of an FLV tag header.
const TagHeaderSize = 11

// Tag types
const (
	TagTypeAudio  = 8
	TagTypeVideo  = 9
	TagTypeScript = 18
)

// Audio format constants (SoundFormat, upper nibble of the first audio byte)
const (
	AudioFormatMP3  = 2
	AudioFormatAAC  = 10
	AudioFormatOpus = 13
)

// AACPacketType constants
const (
	AACPacketTypeSequenceHeader = 0
	AACPacketTypeRaw            = 1
)

// Video codec constants (CodecID, lower nibble of the first video byte)
const (
	VideoCodecAVC  = 7
	VideoCodecHEVC = 12
)

// Video frame types
const (
	VideoFrameKeyFrame   = 1
	VideoFrameInterFrame = 2
)

// AVCPacketType constants
const (
	AVCPacketTypeSequenceHeader = 0
	AVCPacketTypeNALU           = 1
	AVCPacketTypeEndOfSequence  = 2
)

// Enhanced RTMP video packet types
const (
	ExPacketTypeSequenceStart = 0
	ExPacketTypeCodedFrames   = 1
	ExPacketTypeSequenceEnd   = 2
	ExPacketTypeCodedFramesX  = 3
	ExPacketTypeMetadata      = 4
)

// Enhanced RTMP FourCC values
const (
	FourCCHEVC = "hvc1"
	FourCCVP8  = "vp08"
	FourCCVP9  = "vp09"
	FourCCAV1  = "av01"
)

// IsVideoKeyframe returns true if the FLV video payload represents a keyframe.
// In RTMP/FLV format: byte[0] upper nibble = frame type (1=keyframe), ignoring the enhanced flag.
func IsVideoKeyframe(payload []byte) bool {
	return len(payload) >= 1 && (payload[0]>>4)&0x07 == VideoFrameKeyFrame
}
