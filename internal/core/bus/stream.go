// If you are AI: This file implements MediaStream, the registry entry for one stream key.
// A stream has at most one publisher, a GOP cache and a set of writers; it is guarded by the registry lock.

package bus

import (
	"time"
)

// writerEntry tracks whether a writer has received the catch-up snapshot.
type writerEntry struct {
	writer      Writer
	initialized bool
}

// MediaStream represents a live media stream instance.
// Lock expectations: all fields are guarded by the owning Registry's mutex.
type MediaStream struct {
	key         StreamKey
	publisher   string // publisher ID, empty when no publisher is attached
	cache       *GopCache
	writers     map[string]*writerEntry
	createdAt   time.Time
	publishedAt time.Time
	packets     uint64
	bytes       uint64
	lastCodec   [2]Codec // video, audio
}

// newMediaStream creates a new stream with the given key.
func newMediaStream(key StreamKey, minGop int) *MediaStream {
	return &MediaStream{
		key:       key,
		cache:     NewGopCache(minGop),
		writers:   make(map[string]*writerEntry),
		createdAt: time.Now(),
	}
}

// hasPublisher returns true if a publisher is currently attached.
func (s *MediaStream) hasPublisher() bool {
	return s.publisher != ""
}

// isEmpty returns true if the stream has no publisher and no writers.
func (s *MediaStream) isEmpty() bool {
	return !s.hasPublisher() && len(s.writers) == 0
}

// account updates per-stream counters.
func (s *MediaStream) account(pkt *MediaPacket) {
	s.packets++
	s.bytes += uint64(len(pkt.Payload))
	switch pkt.AVType {
	case AVTypeVideo:
		if pkt.Codec != CodecUnknown {
			s.lastCodec[0] = pkt.Codec
		}
	case AVTypeAudio:
		if pkt.Codec != CodecUnknown {
			s.lastCodec[1] = pkt.Codec
		}
	}
}

// StreamInfo is a point-in-time view of a stream.
type StreamInfo struct {
	Key          StreamKey
	HasPublisher bool
	Writers      int
	GopCount     int
	Packets      uint64
	Bytes        uint64
	VideoCodec   Codec
	AudioCodec   Codec
	CreatedAt    time.Time
	PublishedAt  time.Time
}

// info builds a StreamInfo.
func (s *MediaStream) info() StreamInfo {
	return StreamInfo{
		Key:          s.key,
		HasPublisher: s.hasPublisher(),
		Writers:      len(s.writers),
		GopCount:     s.cache.GopCount(),
		Packets:      s.packets,
		Bytes:        s.bytes,
		VideoCodec:   s.lastCodec[0],
		AudioCodec:   s.lastCodec[1],
		CreatedAt:    s.createdAt,
		PublishedAt:  s.publishedAt,
	}
}
