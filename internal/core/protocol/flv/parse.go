// If you are AI: This file inspects FLV audio/video tag bodies to classify media packets.
// Only the 1-5 byte codec prefix is read; codec payloads are never parsed.

package flv

import (
	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/wire"
)

// TagInfo is what the tag prefix says about a payload.
type TagInfo struct {
	Codec      bus.Codec
	IsKeyFrame bool
	IsSeqHdr   bool
	// CompositionTime is PTS - DTS in milliseconds for AVC/HEVC frames.
	CompositionTime int32
	// PrefixLen is the number of prefix bytes before the codec payload.
	PrefixLen int
}

// InspectAudio classifies an FLV audio tag body.
func InspectAudio(payload []byte) TagInfo {
	var info TagInfo
	if len(payload) < 1 {
		return info
	}
	info.PrefixLen = 1
	switch payload[0] >> 4 {
	case AudioFormatAAC:
		info.Codec = bus.CodecAAC
		if len(payload) >= 2 {
			info.PrefixLen = 2
			info.IsSeqHdr = payload[1] == AACPacketTypeSequenceHeader
		}
	case AudioFormatMP3:
		info.Codec = bus.CodecMP3
	case AudioFormatOpus:
		info.Codec = bus.CodecOpus
	}
	return info
}

// InspectVideo classifies an FLV video tag body, including enhanced RTMP FourCC tags.
func InspectVideo(payload []byte) TagInfo {
	var info TagInfo
	if len(payload) < 1 {
		return info
	}
	info.IsKeyFrame = IsVideoKeyframe(payload)
	if payload[0]&0x80 != 0 {
		return inspectEnhancedVideo(payload, info)
	}
	info.PrefixLen = 1
	switch payload[0] & 0x0F {
	case VideoCodecAVC:
		info.Codec = bus.CodecH264
	case VideoCodecHEVC:
		info.Codec = bus.CodecH265
	default:
		return info
	}
	if len(payload) >= 5 {
		info.PrefixLen = 5
		info.IsSeqHdr = payload[1] == AVCPacketTypeSequenceHeader
		info.CompositionTime = signed24(wire.Uint24(payload[2:5]))
	}
	return info
}

// inspectEnhancedVideo handles the ExVideoTagHeader layout: flags, FourCC, optional CTS.
func inspectEnhancedVideo(payload []byte, info TagInfo) TagInfo {
	if len(payload) < 5 {
		return info
	}
	packetType := payload[0] & 0x0F
	switch string(payload[1:5]) {
	case FourCCHEVC:
		info.Codec = bus.CodecH265
	case FourCCVP8:
		info.Codec = bus.CodecVP8
	case FourCCVP9:
		info.Codec = bus.CodecVP9
	}
	info.PrefixLen = 5
	info.IsSeqHdr = packetType == ExPacketTypeSequenceStart
	if packetType == ExPacketTypeCodedFrames && info.Codec == bus.CodecH265 && len(payload) >= 8 {
		info.CompositionTime = signed24(wire.Uint24(payload[5:8]))
		info.PrefixLen = 8
	}
	return info
}

// signed24 sign-extends a 24-bit value.
func signed24(v uint32) int32 {
	return int32(v<<8) >> 8
}

// StripPrefix returns the codec payload after the FLV tag prefix.
func StripPrefix(avType bus.AVType, payload []byte) []byte {
	var info TagInfo
	switch avType {
	case bus.AVTypeAudio:
		info = InspectAudio(payload)
	case bus.AVTypeVideo:
		info = InspectVideo(payload)
	default:
		return payload
	}
	return payload[info.PrefixLen:]
}
