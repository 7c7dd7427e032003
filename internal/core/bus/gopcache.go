// If you are AI: This file implements the GOP cache used to bootstrap late-joining writers.
// Sequence headers and metadata are latest-wins slots; media since the retained key frame is a bounded list.

package bus

// maxCachedPackets bounds the mini-GOP list for streams with very long key frame intervals.
const maxCachedPackets = 8192

// GopCache holds codec headers and the media since the last retained key frame.
// Not safe for concurrent use; guarded by the registry lock.
type GopCache struct {
	minGop      int
	videoSeqHdr *MediaPacket
	audioSeqHdr *MediaPacket
	metadata    *MediaPacket
	packets     []*MediaPacket
	gopCount    int
	videoSeen   bool
	overflowed  bool
}

// NewGopCache creates a cache that clears its packet list every minGop key frames.
func NewGopCache(minGop int) *GopCache {
	if minGop < 1 {
		minGop = 1
	}
	return &GopCache{minGop: minGop}
}

// Update records pkt. Returns true if pkt is now part of Snapshot.
func (c *GopCache) Update(pkt *MediaPacket) bool {
	if pkt.AVType == AVTypeVideo {
		c.videoSeen = true
	}
	switch {
	case pkt.AVType == AVTypeMetadata:
		c.metadata = pkt
		return true
	case pkt.IsSeqHdr && pkt.AVType == AVTypeVideo:
		c.videoSeqHdr = pkt
		return true
	case pkt.IsSeqHdr && pkt.AVType == AVTypeAudio:
		c.audioSeqHdr = pkt
		return true
	case pkt.IsVideoKeyFrame():
		if c.overflowed || c.gopCount%c.minGop == 0 {
			c.packets = nil
			c.overflowed = false
		}
		c.gopCount++
		c.packets = append(c.packets, pkt)
		return true
	}
	// Nothing is cached until the first key frame.
	if c.gopCount == 0 || c.overflowed {
		return false
	}
	if len(c.packets) >= maxCachedPackets {
		c.packets = nil
		c.overflowed = true
		return false
	}
	c.packets = append(c.packets, pkt)
	return true
}

// Ready reports whether a new writer can be bootstrapped from the cache.
// Audio-only streams are ready immediately; streams with video need a cached key frame.
func (c *GopCache) Ready() bool {
	if !c.videoSeen {
		return true
	}
	return len(c.packets) > 0 && c.packets[0].IsVideoKeyFrame()
}

// Headers returns the metadata, video and audio sequence headers that are set, in that order.
func (c *GopCache) Headers() []*MediaPacket {
	headers := make([]*MediaPacket, 0, 3)
	for _, p := range []*MediaPacket{c.metadata, c.videoSeqHdr, c.audioSeqHdr} {
		if p != nil {
			headers = append(headers, p)
		}
	}
	return headers
}

// Packets returns a copy of the buffered mini-GOP.
func (c *GopCache) Packets() []*MediaPacket {
	return append([]*MediaPacket(nil), c.packets...)
}

// Snapshot returns headers followed by the mini-GOP.
func (c *GopCache) Snapshot() []*MediaPacket {
	return append(c.Headers(), c.packets...)
}

// GopCount returns the number of video key frames seen.
func (c *GopCache) GopCount() int {
	return c.gopCount
}

// Reset drops everything, used when a new publisher takes over the key.
func (c *GopCache) Reset() {
	*c = GopCache{minGop: c.minGop}
}
