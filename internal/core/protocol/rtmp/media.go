// If you are AI: This file converts between RTMP media messages and registry media packets.
// Payloads keep the FLV tag body; codec and frame flags come from the tag prefix.

package rtmp

import (
	"bytes"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// setDataFrame is the AMF0 encoding of the "@setDataFrame" string.
var setDataFrame = []byte{0x02, 0x00, 0x0d, '@', 's', 'e', 't', 'D', 'a', 't', 'a', 'F', 'r', 'a', 'm', 'e'}

// PacketFromMessage converts an audio, video or data message into a media packet for key.
// Returns false for message types that carry no media.
func PacketFromMessage(msg *Message, key bus.StreamKey) (*bus.MediaPacket, bool) {
	pkt := &bus.MediaPacket{
		Format:    bus.FormatFlv,
		DTS:       int64(msg.Timestamp),
		PTS:       int64(msg.Timestamp),
		StreamKey: key,
		StreamID:  msg.StreamID,
		Payload:   msg.Body,
	}
	switch msg.TypeID {
	case MessageTypeAudio:
		info := flv.InspectAudio(msg.Body)
		pkt.AVType = bus.AVTypeAudio
		pkt.Codec = info.Codec
		pkt.IsSeqHdr = info.IsSeqHdr
	case MessageTypeVideo:
		info := flv.InspectVideo(msg.Body)
		pkt.AVType = bus.AVTypeVideo
		pkt.Codec = info.Codec
		pkt.IsKeyFrame = info.IsKeyFrame
		pkt.IsSeqHdr = info.IsSeqHdr
		pkt.PTS = pkt.DTS + int64(info.CompositionTime)
	case MessageTypeDataAMF0, MessageTypeDataAMF3:
		body := msg.Body
		if msg.TypeID == MessageTypeDataAMF3 && len(body) > 0 && body[0] == 0 {
			body = body[1:]
		}
		pkt.AVType = bus.AVTypeMetadata
		pkt.Payload = StripSetDataFrame(body)
	default:
		return nil, false
	}
	if len(pkt.Payload) == 0 {
		return nil, false
	}
	return pkt, true
}

// StripSetDataFrame removes a leading "@setDataFrame" so players receive onMetaData first.
func StripSetDataFrame(body []byte) []byte {
	if bytes.HasPrefix(body, setDataFrame) {
		return body[len(setDataFrame):]
	}
	return body
}

// MessageFromPacket frames a packet for a play session on streamID.
// Audio goes on csid 4, video and metadata on csid 6.
func MessageFromPacket(pkt *bus.MediaPacket, streamID uint32) *Message {
	msg := &Message{
		Timestamp: uint32(pkt.DTS),
		StreamID:  streamID,
		Body:      pkt.Payload,
	}
	switch pkt.AVType {
	case bus.AVTypeAudio:
		msg.CSID = CSIDAudio
		msg.TypeID = MessageTypeAudio
	case bus.AVTypeVideo:
		msg.CSID = CSIDVideo
		msg.TypeID = MessageTypeVideo
	default:
		msg.CSID = CSIDVideo
		msg.TypeID = MessageTypeDataAMF0
	}
	return msg
}
