// If you are AI: This file defines out-of-band sinks and publish listeners attached to the registry.
// Sinks get a private copy of every packet regardless of writers; AsyncSink moves their work off the registry lock.

package bus

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Sink receives every packet written to the registry.
type Sink interface {
	OutputPacket(pkt *MediaPacket) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(pkt *MediaPacket) error

// OutputPacket calls f.
func (f SinkFunc) OutputPacket(pkt *MediaPacket) error {
	return f(pkt)
}

// PublishListener is notified when a key gains or loses its publisher.
// Calls are made without the registry lock held.
type PublishListener interface {
	OnPublish(app, name string)
	OnUnpublish(app, name string)
}

// AsyncSink runs a Sink on its own goroutine behind a bounded queue.
// Packets that do not fit are dropped and counted.
// If the wrapped sink is also a PublishListener, publish events are queued in order with the packets.
// Events are never dropped and never block; they do not count against the packet bound.
type AsyncSink struct {
	name     string
	sink     Sink
	listener PublishListener
	size     int
	logger   *slog.Logger

	mu      sync.Mutex
	items   []asyncItem
	packets int
	closed  bool

	notify  chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
}

// asyncItem is a packet or, when pkt is nil, a publish event.
type asyncItem struct {
	pkt       *MediaPacket
	key       StreamKey
	published bool
}

// NewAsyncSink starts a goroutine delivering to sink.
func NewAsyncSink(name string, sink Sink, size int, logger *slog.Logger) *AsyncSink {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &AsyncSink{
		name:   name,
		sink:   sink,
		size:   size,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger.With("sink", name),
	}
	s.listener, _ = sink.(PublishListener)
	go s.run()
	return s
}

// run delivers queued items until Close, then drains what is left.
func (s *AsyncSink) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.items) == 0 && !s.closed {
			s.mu.Unlock()
			<-s.notify
			s.mu.Lock()
		}
		batch := s.items
		s.items = nil
		s.packets = 0
		closed := s.closed
		s.mu.Unlock()

		for _, item := range batch {
			s.deliver(item)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

func (s *AsyncSink) deliver(item asyncItem) {
	switch {
	case item.pkt != nil:
		if err := s.sink.OutputPacket(item.pkt); err != nil {
			s.logger.Warn("sink write failed", "stream", item.pkt.StreamKey.String(), "error", err)
		}
	case item.published:
		s.listener.OnPublish(item.key.App, item.key.Name)
	default:
		s.listener.OnUnpublish(item.key.App, item.key.Name)
	}
}

// enqueue appends item and wakes the delivery goroutine.
func (s *AsyncSink) enqueue(item asyncItem) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrQueueClosed
	}
	if item.pkt != nil {
		if s.packets >= s.size {
			s.mu.Unlock()
			s.dropped.Add(1)
			return ErrQueueFull
		}
		s.packets++
	}
	s.items = append(s.items, item)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// OutputPacket enqueues pkt without blocking.
// Returns ErrQueueFull when the queue is full and ErrQueueClosed after Close.
func (s *AsyncSink) OutputPacket(pkt *MediaPacket) error {
	return s.enqueue(asyncItem{pkt: pkt})
}

// OnPublish queues the event for the wrapped listener. Ignored after Close.
func (s *AsyncSink) OnPublish(app, name string) {
	if s.listener != nil {
		s.enqueue(asyncItem{key: NewStreamKey(app, name), published: true})
	}
}

// OnUnpublish queues the event for the wrapped listener. Ignored after Close.
func (s *AsyncSink) OnUnpublish(app, name string) {
	if s.listener != nil {
		s.enqueue(asyncItem{key: NewStreamKey(app, name)})
	}
}

// Dropped returns the number of packets dropped because the queue was full.
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close delivers what is queued and stops the goroutine. Safe to call more than once.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
	<-s.done
}
