// If you are AI: This file implements the HTTP-FLV subscriber that drains a registry writer and writes FLV.
// The registry delivers headers and the cached GOP first, so the first media tag is a key frame.

package httpflv

import (
	"bufio"
	"context"
	"errors"
	"io"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// Subscriber represents an HTTP-FLV client subscriber.
// Reads packets from its queue and writes FLV tags to the response.
type Subscriber struct {
	writer        *bufio.Writer
	flush         func()
	queue         *bus.QueueWriter
	muxer         flv.Muxer
	headerWritten bool
}

// NewSubscriber creates a new HTTP-FLV subscriber for key.
// flush is called after every tag so clients see data immediately; it may be nil.
func NewSubscriber(w io.Writer, flush func(), key bus.StreamKey, queueSize int, strategy bus.BackpressureStrategy) *Subscriber {
	return &Subscriber{
		writer: bufio.NewWriter(w),
		flush:  flush,
		queue:  bus.NewQueueWriter(key, queueSize, strategy),
	}
}

// Writer returns the registry writer backing the subscriber.
func (s *Subscriber) Writer() *bus.QueueWriter {
	return s.queue
}

// WriteHeader writes the FLV file header and the first previous-tag-size.
// Must be called before writing any tags.
func (s *Subscriber) WriteHeader(header flv.Header) error {
	if s.headerWritten {
		return nil
	}
	if _, err := s.writer.Write(header.StreamStart()); err != nil {
		return err
	}
	s.headerWritten = true
	return s.Flush()
}

// Flush pushes buffered bytes to the client.
func (s *Subscriber) Flush() error {
	if err := s.writer.Flush(); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}

// ProcessPackets writes FLV tags until ctx ends, the client goes away or the writer is evicted.
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
		if _, err := s.writer.Write(tag); err != nil {
			return err
		}
		// Batch whatever is already queued into one flush.
		if s.queue.Pending() == 0 {
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
}

// Close releases the queue.
func (s *Subscriber) Close() {
	s.queue.Close()
}

// isEvicted reports whether err means the registry dropped the subscriber.
func isEvicted(err error) bool {
	return errors.Is(err, bus.ErrWriterClosed)
}
