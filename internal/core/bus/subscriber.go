// If you are AI: This file defines the Writer interface and QueueWriter, the queued writer used by network consumers.
// The registry calls OutputPacket under its lock; QueueWriter only enqueues so the fan-out never blocks.

package bus

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrWriterClosed is returned by Next once the queue is closed and drained.
var ErrWriterClosed = errors.New("writer closed")

// Writer is a registry fan-out target.
// OutputPacket must not block; an error evicts the writer from its stream.
type Writer interface {
	ID() string
	Key() StreamKey
	OutputPacket(pkt *MediaPacket) error
}

// QueueWriter is a Writer backed by a bounded ring buffer.
// A consumer goroutine drains it with Next.
type QueueWriter struct {
	id     string
	key    StreamKey
	buffer *RingBuffer
}

// NewQueueWriter creates a queued writer for key with the specified capacity and strategy.
func NewQueueWriter(key StreamKey, capacity int, strategy BackpressureStrategy) *QueueWriter {
	return &QueueWriter{
		id:     uuid.NewString(),
		key:    key,
		buffer: NewRingBuffer(capacity, strategy),
	}
}

// ID returns the unique writer identifier.
func (w *QueueWriter) ID() string {
	return w.id
}

// Key returns the stream the writer reads.
func (w *QueueWriter) Key() StreamKey {
	return w.key
}

// OutputPacket enqueues a packet.
// A full queue under BackpressureEvict closes the writer, so the consumer stops after draining.
func (w *QueueWriter) OutputPacket(pkt *MediaPacket) error {
	err := w.buffer.Write(pkt)
	if errors.Is(err, ErrQueueFull) {
		w.buffer.Close()
	}
	return err
}

// Next blocks until a packet is available, the context ends or the writer is closed.
func (w *QueueWriter) Next(ctx context.Context) (*MediaPacket, error) {
	for {
		if pkt, ok := w.buffer.Read(); ok {
			return pkt, nil
		}
		if w.buffer.Closed() {
			return nil, ErrWriterClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.buffer.Notify():
		}
	}
}

// Close stops accepting packets and wakes the consumer.
func (w *QueueWriter) Close() {
	w.buffer.Close()
}

// Pending returns the number of queued packets.
func (w *QueueWriter) Pending() int {
	return w.buffer.Len()
}

// Dropped returns the number of packets dropped due to backpressure.
func (w *QueueWriter) Dropped() uint64 {
	return w.buffer.Dropped()
}
