// If you are AI: This file converts outbound messages into RTMP chunks.
// Each message is written as one fmt0 chunk followed by fmt3 continuation chunks.

package rtmp

import (
	"encoding/binary"
	"io"

	"streamhub/internal/core/protocol/wire"
)

// ChunkWriter frames messages with the outgoing chunk size.
type ChunkWriter struct {
	chunkSize uint32
}

// NewChunkWriter creates a writer with the default 128-byte chunk size.
func NewChunkWriter() *ChunkWriter {
	return &ChunkWriter{chunkSize: DefaultChunkSize}
}

// SetChunkSize sets the chunk size for outgoing chunks.
func (w *ChunkWriter) SetChunkSize(size uint32) error {
	if size == 0 || size > MaxChunkSize {
		return protocolErrorf("set chunk size", "chunk size %d out of range", size)
	}
	w.chunkSize = size
	return nil
}

// ChunkSize returns the outgoing chunk size.
func (w *ChunkWriter) ChunkSize() uint32 {
	return w.chunkSize
}

// AppendMessage appends the chunked form of msg to dst.
func (w *ChunkWriter) AppendMessage(dst []byte, msg *Message) []byte {
	return appendChunks(dst, msg.CSID, msg.TypeID, msg.Timestamp, msg.StreamID, msg.Body, w.chunkSize)
}

// appendBasicHeader appends the 1-3 byte basic header.
func appendBasicHeader(dst []byte, format byte, csid uint32) []byte {
	switch {
	case csid < 64:
		return append(dst, format<<6|byte(csid))
	case csid < 320:
		return append(dst, format<<6, byte(csid-64))
	default:
		v := csid - 64
		return append(dst, format<<6|1, byte(v>>8), byte(v))
	}
}

// appendChunks writes one fmt0 chunk and as many fmt3 chunks as the body needs.
func appendChunks(dst []byte, csid uint32, msgType byte, timestamp uint32, streamID uint32, body []byte, chunkSize uint32) []byte {
	bodyLen := uint32(len(body))
	extended := timestamp >= wire.MaxUint24

	dst = appendBasicHeader(dst, ChunkFmt0, csid)
	ts := timestamp
	if extended {
		ts = wire.MaxUint24
	}
	dst = wire.AppendUint24(dst, ts)
	dst = wire.AppendUint24(dst, bodyLen)
	dst = append(dst, msgType)
	// Stream ID is little-endian in RTMP
	dst = binary.LittleEndian.AppendUint32(dst, streamID)
	if extended {
		dst = binary.BigEndian.AppendUint32(dst, timestamp)
	}

	offset := uint32(0)
	for {
		chunkLen := bodyLen - offset
		if chunkLen > chunkSize {
			chunkLen = chunkSize
		}
		dst = append(dst, body[offset:offset+chunkLen]...)
		offset += chunkLen
		if offset >= bodyLen {
			return dst
		}
		dst = appendBasicHeader(dst, ChunkFmt3, csid)
		if extended {
			dst = binary.BigEndian.AppendUint32(dst, timestamp)
		}
	}
}

// WriteChunk writes a message as RTMP chunks.
// NOTE: If w implements Flusher, Flush() is called after writing to ensure immediate transmission.
func WriteChunk(w io.Writer, csID uint32, msgType byte, timestamp uint32, streamID uint32, body []byte, chunkSize uint32) error {
	buf := appendChunks(nil, csID, msgType, timestamp, streamID, body, chunkSize)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	// Flush if the writer supports it (e.g., bufio.Writer)
	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}
