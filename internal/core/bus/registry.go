// If you are AI: This file implements the Registry that maps stream keys to MediaStreams and fans packets out.
// One mutex serializes every mutation and fan-out; listeners and sinks are invoked after it is released.

package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrPublisherExists is returned when a key already has a publisher.
var ErrPublisherExists = errors.New("stream already has a publisher")

// EvictFunc observes writers removed after a failed OutputPacket.
type EvictFunc func(key StreamKey, writerID string, err error)

// Registry manages the lifecycle of streams.
// Lock expectations: a single mutex guards the map and every MediaStream.
type Registry struct {
	mu        sync.Mutex
	streams   map[StreamKey]*MediaStream
	minGop    int
	sinks     []Sink
	listeners []PublishListener
	onEvict   EvictFunc
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMinGop sets how many key frames the GOP cache spans before clearing.
func WithMinGop(n int) Option {
	return func(r *Registry) { r.minGop = n }
}

// WithSink adds an out-of-band sink.
func WithSink(s Sink) Option {
	return func(r *Registry) { r.sinks = append(r.sinks, s) }
}

// WithListener adds a publish listener.
func WithListener(l PublishListener) Option {
	return func(r *Registry) { r.listeners = append(r.listeners, l) }
}

// WithEvictFunc sets the eviction observer.
func WithEvictFunc(fn EvictFunc) Option {
	return func(r *Registry) { r.onEvict = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a new stream registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		streams: make(map[StreamKey]*MediaStream),
		minGop:  1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// getOrCreate returns the entry for key, creating it. Caller holds r.mu.
func (r *Registry) getOrCreate(key StreamKey) *MediaStream {
	s, ok := r.streams[key]
	if !ok {
		s = newMediaStream(key, r.minGop)
		r.streams[key] = s
	}
	return s
}

// removeIfEmpty deletes the entry for key when it has no publisher and no writers. Caller holds r.mu.
func (r *Registry) removeIfEmpty(key StreamKey) {
	if s, ok := r.streams[key]; ok && s.isEmpty() {
		delete(r.streams, key)
	}
}

// AddPublisher attaches publisherID as the publisher of key.
// Returns ErrPublisherExists if another publisher is attached.
func (r *Registry) AddPublisher(key StreamKey, publisherID string) error {
	if publisherID == "" {
		return fmt.Errorf("empty publisher id for %s", key)
	}
	r.mu.Lock()
	s := r.getOrCreate(key)
	if s.hasPublisher() {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPublisherExists, key)
	}
	s.publisher = publisherID
	s.publishedAt = time.Now()
	// Writers waiting from a previous publisher need the new codec headers.
	s.cache.Reset()
	for _, we := range s.writers {
		we.initialized = false
	}
	r.mu.Unlock()

	for _, l := range r.listeners {
		l.OnPublish(key.App, key.Name)
	}
	return nil
}

// RemovePublisher detaches publisherID from key. Returns false if it was not the publisher.
func (r *Registry) RemovePublisher(key StreamKey, publisherID string) bool {
	r.mu.Lock()
	s, ok := r.streams[key]
	if !ok || s.publisher != publisherID {
		r.mu.Unlock()
		return false
	}
	s.publisher = ""
	r.removeIfEmpty(key)
	r.mu.Unlock()

	for _, l := range r.listeners {
		l.OnUnpublish(key.App, key.Name)
	}
	return true
}

// AddPlayer attaches a writer to the stream named by w.Key().
// The writer receives the cached headers and mini-GOP with the next packet.
func (r *Registry) AddPlayer(w Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.getOrCreate(w.Key())
	s.writers[w.ID()] = &writerEntry{writer: w}
}

// RemovePlayer detaches a writer. The entry is deleted when nothing else holds it.
func (r *Registry) RemovePlayer(w Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[w.Key()]
	if !ok {
		return
	}
	delete(s.writers, w.ID())
	r.removeIfEmpty(w.Key())
}

// WriteMediaPacket updates the GOP cache of pkt's stream and fans pkt out.
// Writers that fail are evicted after the fan-out; their errors are returned together.
func (r *Registry) WriteMediaPacket(pkt *MediaPacket) error {
	var errs *multierror.Error
	var evicted []evictedWriter

	r.mu.Lock()
	s := r.getOrCreate(pkt.StreamKey)
	s.account(pkt)
	cached := s.cache.Update(pkt)
	ready := s.cache.Ready()

	for id, we := range s.writers {
		if !we.initialized {
			if !ready {
				continue
			}
			// Catch up: headers and mini-GOP, which already hold pkt when cached is true.
			err := deliver(we.writer, s.cache.Snapshot())
			if err == nil && !cached {
				err = we.writer.OutputPacket(pkt)
			}
			we.initialized = true
			if err != nil {
				evicted = append(evicted, evictedWriter{id: id, err: err})
			}
			continue
		}
		if err := we.writer.OutputPacket(pkt); err != nil {
			evicted = append(evicted, evictedWriter{id: id, err: err})
		}
	}
	// Never removed while iterating the writer set.
	for _, ev := range evicted {
		delete(s.writers, ev.id)
		errs = multierror.Append(errs, fmt.Errorf("writer %s: %w", ev.id, ev.err))
	}
	r.removeIfEmpty(pkt.StreamKey)
	r.mu.Unlock()

	for _, ev := range evicted {
		r.logger.Warn("evicted writer", "stream", pkt.StreamKey.String(), "writer", ev.id, "error", ev.err)
		if r.onEvict != nil {
			r.onEvict(pkt.StreamKey, ev.id, ev.err)
		}
	}
	for _, sink := range r.sinks {
		if err := sink.OutputPacket(pkt.Clone()); err != nil {
			r.logger.Debug("sink rejected packet", "stream", pkt.StreamKey.String(), "error", err)
		}
	}
	return errs.ErrorOrNil()
}

type evictedWriter struct {
	id  string
	err error
}

// deliver sends packets in order, stopping at the first error.
func deliver(w Writer, pkts []*MediaPacket) error {
	for _, p := range pkts {
		if err := w.OutputPacket(p); err != nil {
			return err
		}
	}
	return nil
}

// HasPublisher reports whether key currently has a publisher.
func (r *Registry) HasPublisher(key StreamKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[key]
	return ok && s.hasPublisher()
}

// Info returns a snapshot of one stream.
func (r *Registry) Info(key StreamKey) (StreamInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[key]
	if !ok {
		return StreamInfo{}, false
	}
	return s.info(), true
}

// Snapshot returns all streams sorted by key.
func (r *Registry) Snapshot() []StreamInfo {
	r.mu.Lock()
	infos := make([]StreamInfo, 0, len(r.streams))
	for _, s := range r.streams {
		infos = append(infos, s.info())
	}
	r.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key.String() < infos[j].Key.String() })
	return infos
}

// Count returns the number of active streams in the registry.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

// List returns all stream keys in the registry.
func (r *Registry) List() []StreamKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]StreamKey, 0, len(r.streams))
	for key := range r.streams {
		keys = append(keys, key)
	}
	return keys
}
