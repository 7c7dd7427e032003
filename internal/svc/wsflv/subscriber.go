// If you are AI: This file implements WebSocket-FLV subscriber that drains a registry writer and writes FLV.
// Each FLV tag is one binary WebSocket frame; the header and first previous-tag-size share the first frame.

package wsflv

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// writeWait bounds a single frame write to a slow client.
var writeWait = 10 * time.Second

// Subscriber represents a WebSocket-FLV client subscriber.
// Reads packets from its queue and writes FLV tags to the WebSocket connection.
type Subscriber struct {
	conn          WebSocketConn
	queue         *bus.QueueWriter
	muxer         flv.Muxer
	headerWritten bool
}

// WebSocketConn defines the interface for WebSocket operations.
// This allows for easier testing and abstraction.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// NewSubscriber creates a new WebSocket-FLV subscriber for key.
func NewSubscriber(conn WebSocketConn, key bus.StreamKey, queueSize int, strategy bus.BackpressureStrategy) *Subscriber {
	return &Subscriber{
		conn:  conn,
		queue: bus.NewQueueWriter(key, queueSize, strategy),
	}
}

// Writer returns the registry writer backing the subscriber.
func (s *Subscriber) Writer() *bus.QueueWriter {
	return s.queue
}

func (s *Subscriber) write(frame []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// WriteHeader writes the FLV file header as the first WebSocket frame.
// Must be called before writing any tags.
func (s *Subscriber) WriteHeader(header flv.Header) error {
	if s.headerWritten {
		return nil
	}
	if err := s.write(header.StreamStart()); err != nil {
		return err
	}
	s.headerWritten = true
	return nil
}

// ProcessPackets writes one frame per tag until ctx ends, a write fails or the writer is evicted.
// Returns nil when ctx ends.
func (s *Subscriber) ProcessPackets(ctx context.Context) error {
	for {
		pkt, err := s.queue.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		tag := s.muxer.Tag(pkt)
		if tag == nil {
			continue
		}
		if err := s.write(tag); err != nil {
			return err
		}
	}
}

// Close releases the queue.
func (s *Subscriber) Close() {
	s.queue.Close()
}
