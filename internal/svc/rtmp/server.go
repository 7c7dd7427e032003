// If you are AI: This file implements the RTMP server that accepts connections.
// The server handles the handshake, runs one session goroutine per connection and reaps idle sessions.

package rtmp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
	"streamhub/internal/metrics"
)

// reapInterval is how often idle sessions are looked for.
var reapInterval = 5 * time.Second

// Options are the session parameters taken from configuration.
type Options struct {
	ChunkSize        uint32
	MaxChunkSize     uint32
	WindowAckSize    uint32
	IdleTimeout      time.Duration
	ComplexHandshake bool
	Public128Key     bool
	QueueSize        int
	Backpressure     bus.BackpressureStrategy
}

// OptionsFromConfig builds Options from the rtmp and stream config sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	strategy, err := bus.ParseBackpressure(cfg.Stream.Backpressure)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ChunkSize:        cfg.RTMP.ChunkSize,
		MaxChunkSize:     cfg.RTMP.MaxChunkSize,
		WindowAckSize:    cfg.RTMP.WindowAckSize,
		IdleTimeout:      cfg.RTMP.IdleTimeoutDuration(),
		ComplexHandshake: cfg.RTMP.ComplexEnabled(),
		Public128Key:     cfg.RTMP.Public128Enabled(),
		QueueSize:        cfg.Stream.QueueSize,
		Backpressure:     strategy,
	}, nil
}

// Server represents an RTMP server.
type Server struct {
	registry *bus.Registry
	opts     Options
	metrics  *metrics.Metrics
	logger   *slog.Logger

	listener  net.Listener
	mu        sync.Mutex
	sessions  map[string]*Session
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewServer creates a new RTMP server.
func NewServer(registry *bus.Registry, opts Options, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		registry: registry,
		opts:     opts,
		metrics:  m,
		logger:   logger.With("component", "rtmp"),
		sessions: make(map[string]*Session),
	}
}

// Listen starts listening on the specified address.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rtmp listen %s: %w", addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Close is called or ctx ends.
// Returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("rtmp server is not listening")
	}
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	reapCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.reapLoop(reapCtx)

	s.logger.Info("rtmp server listening", "addr", s.listener.Addr().String())
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		s.metrics.ConnectionAccepted()
		s.wg.Add(1)
		go s.handleConnection(nc)
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// handleConnection runs the handshake and the session of one connection.
func (s *Server) handleConnection(nc net.Conn) {
	defer s.wg.Done()
	sess := newSession(s, nc)
	if !s.track(sess) {
		nc.Close()
		return
	}
	defer s.untrack(sess)

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	sess.serve()
}

// track registers a session unless the server is closing.
func (s *Server) track(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess.id] = sess
	return true
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// reapLoop closes idle sessions every reapInterval.
func (s *Server) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.reapIdle(now); n > 0 {
				s.logger.Info("reaped idle sessions", "count", n)
			}
		}
	}
}

// reapIdle closes sessions with no activity for the idle timeout and returns how many it closed.
func (s *Server) reapIdle(now time.Time) int {
	s.mu.Lock()
	var idle []*Session
	for _, sess := range s.sessions {
		if now.Sub(sess.lastActivity()) > s.opts.IdleTimeout {
			idle = append(idle, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.logger.Info("closing idle session", "session_id", sess.ID(), "phase", sess.Phase().String())
		sess.close()
		s.metrics.IdleReaped()
	}
	return len(idle)
}

// Close stops accepting, closes every session and waits for them to finish.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		sessions := make([]*Session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			sessions = append(sessions, sess)
		}
		s.mu.Unlock()

		if s.listener != nil {
			err = s.listener.Close()
		}
		for _, sess := range sessions {
			sess.close()
		}
	})
	s.wg.Wait()
	return err
}

// handshakeEpoch is the S1 time field: milliseconds since the Unix epoch, truncated.
func handshakeEpoch() uint32 {
	return uint32(time.Now().UnixMilli())
}

// newHandshake builds a server handshake engine from the options.
func (s *Server) newHandshake() *rtmpprotocol.ServerHandshake {
	return &rtmpprotocol.ServerHandshake{
		Time:            handshakeEpoch(),
		ComplexDisabled: !s.opts.ComplexHandshake,
		Public128:       s.opts.Public128Key,
	}
}
