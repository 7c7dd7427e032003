// If you are AI: This file implements the bounded ring buffer behind each queued writer.
// The producer is the registry fan-out (never blocks); the consumer waits on a notify channel.

package bus

import (
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned by Write under BackpressureEvict when the buffer is full.
	ErrQueueFull = errors.New("writer queue full")
	// ErrQueueClosed is returned by Write after Close.
	ErrQueueClosed = errors.New("writer queue closed")
)

// BackpressureStrategy defines how the ring buffer handles overflow.
type BackpressureStrategy uint8

const (
	// BackpressureEvict fails the write so the registry evicts the slow writer.
	BackpressureEvict BackpressureStrategy = iota
	// BackpressureDropOldest drops the oldest packet when buffer is full.
	BackpressureDropOldest
)

// ParseBackpressure maps a config value to a strategy.
func ParseBackpressure(s string) (BackpressureStrategy, error) {
	switch s {
	case "", "evict":
		return BackpressureEvict, nil
	case "drop_oldest":
		return BackpressureDropOldest, nil
	}
	return 0, errors.New("unknown backpressure strategy " + s)
}

// RingBuffer is a bounded circular buffer for MediaPacket delivery.
// Safe for one or more producers and a single consumer.
type RingBuffer struct {
	mu       sync.Mutex
	buffer   []*MediaPacket
	head     int
	count    int
	strategy BackpressureStrategy
	dropped  uint64
	closed   bool
	notify   chan struct{}
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int, strategy BackpressureStrategy) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		buffer:   make([]*MediaPacket, capacity),
		strategy: strategy,
		notify:   make(chan struct{}, 1),
	}
}

// Write appends a packet without blocking.
func (rb *RingBuffer) Write(pkt *MediaPacket) error {
	rb.mu.Lock()
	if rb.closed {
		rb.mu.Unlock()
		return ErrQueueClosed
	}
	if rb.count == len(rb.buffer) {
		if rb.strategy == BackpressureEvict {
			rb.mu.Unlock()
			return ErrQueueFull
		}
		rb.buffer[rb.head] = nil
		rb.head = (rb.head + 1) % len(rb.buffer)
		rb.count--
		rb.dropped++
	}
	rb.buffer[(rb.head+rb.count)%len(rb.buffer)] = pkt
	rb.count++
	select {
	case rb.notify <- struct{}{}:
	default:
	}
	rb.mu.Unlock()
	return nil
}

// Read pops the oldest packet. Returns false when empty.
func (rb *RingBuffer) Read() (*MediaPacket, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.count == 0 {
		return nil, false
	}
	pkt := rb.buffer[rb.head]
	rb.buffer[rb.head] = nil
	rb.head = (rb.head + 1) % len(rb.buffer)
	rb.count--
	return pkt, true
}

// Notify returns a channel that receives after writes and on Close.
func (rb *RingBuffer) Notify() <-chan struct{} {
	return rb.notify
}

// Close rejects further writes and wakes the consumer. Buffered packets stay readable.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed {
		return
	}
	rb.closed = true
	close(rb.notify)
}

// Closed reports whether Close was called.
func (rb *RingBuffer) Closed() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.closed
}

// Len returns the number of buffered packets.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer) Cap() int {
	return len(rb.buffer)
}

// Dropped returns the number of packets dropped due to backpressure.
func (rb *RingBuffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}
