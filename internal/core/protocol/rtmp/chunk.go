// If you are AI: This file implements RTMP chunk parsing and reassembly.
// The reader is push-based: Feed appends bytes, Next returns a message or ErrNeedMoreData without consuming partial chunks.

package rtmp

import (
	"encoding/binary"

	"streamhub/internal/core/protocol/wire"
)

// ChunkStreamState is the per chunk-stream-id reassembly state.
type ChunkStreamState struct {
	CSID        uint32
	Fmt         byte
	Timestamp   uint32
	Delta       uint32
	Length      uint32
	TypeID      byte
	MsgStreamID uint32
	Remaining   uint32
	// Extended is set when the last header carried a 4-byte extended timestamp.
	Extended bool

	payload []byte
}

// ChunkReader parses RTMP chunks and reassembles messages.
// Not safe for concurrent use; owned by one connection reader.
type ChunkReader struct {
	buf          []byte
	off          int
	streams      map[uint32]*ChunkStreamState
	chunkSize    uint32
	maxChunkSize uint32
}

// NewChunkReader creates a reader with the default 128-byte chunk size.
func NewChunkReader() *ChunkReader {
	return &ChunkReader{
		streams:      make(map[uint32]*ChunkStreamState),
		chunkSize:    DefaultChunkSize,
		maxChunkSize: MaxChunkSize,
	}
}

// Feed appends received bytes.
func (r *ChunkReader) Feed(b []byte) {
	if r.off > 0 && r.off >= len(r.buf)/2 {
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}
	r.buf = append(r.buf, b...)
}

// Buffered returns the number of fed bytes not yet consumed.
func (r *ChunkReader) Buffered() int {
	return len(r.buf) - r.off
}

// SetMaxChunkSize sets the ceiling accepted from SetChunkSize.
func (r *ChunkReader) SetMaxChunkSize(size uint32) {
	r.maxChunkSize = size
}

// SetChunkSize sets the chunk size for incoming chunks.
func (r *ChunkReader) SetChunkSize(size uint32) error {
	if size == 0 || size > r.maxChunkSize || size > MaxChunkSize {
		return protocolErrorf("set chunk size", "chunk size %d out of range", size)
	}
	r.chunkSize = size
	return nil
}

// ChunkSize returns the incoming chunk size.
func (r *ChunkReader) ChunkSize() uint32 {
	return r.chunkSize
}

// Abort discards the partially received message on csid.
func (r *ChunkReader) Abort(csid uint32) {
	if st, ok := r.streams[csid]; ok {
		st.Remaining = 0
		st.payload = nil
	}
}

// Stream returns the state of csid, if any chunk has been seen on it.
func (r *ChunkReader) Stream(csid uint32) (ChunkStreamState, bool) {
	st, ok := r.streams[csid]
	if !ok {
		return ChunkStreamState{}, false
	}
	return *st, true
}

// Next returns the next complete message.
// Returns ErrNeedMoreData when the buffered bytes end inside a chunk.
func (r *ChunkReader) Next() (*Message, error) {
	for {
		msg, err := r.readChunk()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
	}
}

// readChunk consumes one whole chunk, returning a message when it completes one.
// State is only modified after the whole chunk is available.
func (r *ChunkReader) readChunk() (*Message, error) {
	b := r.buf[r.off:]
	if len(b) < 1 {
		return nil, ErrNeedMoreData
	}

	// Extract format and chunk stream ID
	format := b[0] >> 6
	csid := uint32(b[0] & 0x3F)
	n := 1
	switch csid {
	case 0:
		if len(b) < 2 {
			return nil, ErrNeedMoreData
		}
		csid = uint32(b[1]) + 64
		n = 2
	case 1:
		if len(b) < 3 {
			return nil, ErrNeedMoreData
		}
		csid = uint32(wire.Uint16(b[1:3])) + 64
		n = 3
	}

	prev, exists := r.streams[csid]
	var st ChunkStreamState
	if exists {
		st = *prev
	} else {
		if format != ChunkFmt0 {
			return nil, protocolErrorf("read chunk", "csid %d starts with fmt %d", csid, format)
		}
		st.CSID = csid
	}
	newMessage := st.Remaining == 0
	if !newMessage && format != ChunkFmt3 {
		return nil, protocolErrorf("read chunk", "fmt %d header on csid %d with %d bytes outstanding", format, csid, st.Remaining)
	}

	// Read message header based on format
	switch format {
	case ChunkFmt0:
		if len(b) < n+11 {
			return nil, ErrNeedMoreData
		}
		h := b[n : n+11]
		ts := wire.Uint24(h[0:3])
		st.Length = wire.Uint24(h[3:6])
		st.TypeID = h[6]
		// Stream ID is little-endian in RTMP
		st.MsgStreamID = binary.LittleEndian.Uint32(h[7:11])
		n += 11
		st.Extended = ts == wire.MaxUint24
		if st.Extended {
			if len(b) < n+4 {
				return nil, ErrNeedMoreData
			}
			ts = wire.Uint32(b[n : n+4])
			n += 4
		}
		st.Timestamp = ts
		// A following fmt3 message reuses the absolute timestamp as its delta.
		st.Delta = ts
	case ChunkFmt1, ChunkFmt2:
		size := 3
		if format == ChunkFmt1 {
			size = 7
		}
		if len(b) < n+size {
			return nil, ErrNeedMoreData
		}
		h := b[n : n+size]
		delta := wire.Uint24(h[0:3])
		if format == ChunkFmt1 {
			st.Length = wire.Uint24(h[3:6])
			st.TypeID = h[6]
		}
		n += size
		st.Extended = delta == wire.MaxUint24
		if st.Extended {
			if len(b) < n+4 {
				return nil, ErrNeedMoreData
			}
			delta = wire.Uint32(b[n : n+4])
			n += 4
		}
		st.Delta = delta
		st.Timestamp += delta
	case ChunkFmt3:
		if st.Extended {
			// Repeats the extended value of the header this chunk continues.
			if len(b) < n+4 {
				return nil, ErrNeedMoreData
			}
			n += 4
		}
		if newMessage {
			st.Timestamp += st.Delta
		}
	}
	st.Fmt = format

	if newMessage {
		if st.Length > MaxMessageLength {
			return nil, protocolErrorf("read chunk", "message length %d too large", st.Length)
		}
		st.Remaining = st.Length
	}

	// Read chunk payload
	take := st.Remaining
	if take > r.chunkSize {
		take = r.chunkSize
	}
	if uint32(len(b)-n) < take {
		return nil, ErrNeedMoreData
	}

	// Commit
	if newMessage {
		// Grows with received chunks; the declared length is not trusted up front.
		st.payload = make([]byte, 0, take)
	}
	st.payload = append(st.payload, b[n:n+int(take)]...)
	st.Remaining -= take
	r.off += n + int(take)
	if r.off == len(r.buf) {
		r.buf = r.buf[:0]
		r.off = 0
	}

	var msg *Message
	if st.Remaining == 0 {
		msg = &Message{
			CSID:      csid,
			TypeID:    st.TypeID,
			Timestamp: st.Timestamp,
			StreamID:  st.MsgStreamID,
			Body:      st.payload,
		}
		st.payload = nil
	}
	if exists {
		*prev = st
	} else {
		r.streams[csid] = &st
	}
	return msg, nil
}
