// If you are AI: This file manages one server-side RTMP session.
// The session walks Initial, HandshakeC2, Connect, CreateStream, CreatePublishOrPlay and MediaHandle.

package rtmp

import (
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// Phase is the session state machine position.
type Phase int32

const (
	PhaseInitial Phase = iota
	PhaseHandshakeC2
	PhaseConnect
	PhaseCreateStream
	PhaseCreatePublishOrPlay
	PhaseMediaHandle
)

var phaseNames = [...]string{"initial", "handshake_c2", "connect", "create_stream", "create_publish_or_play", "media_handle"}

// String returns the phase name.
func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Request is the identity negotiated by connect, createStream and publish or play.
type Request struct {
	App        string
	TcURL      string
	FlashVer   string
	StreamName string
	Key        bus.StreamKey
	StreamID   uint32
	IsPublish  bool
	IsReady    bool
}

// Session is a server-side RTMP connection.
type Session struct {
	id     string
	server *Server
	nc     net.Conn
	conn   *rtmpprotocol.Conn
	logger *slog.Logger

	phase        atomic.Int32
	req          Request
	nextStreamID uint32
	publishing   bool
	player       *player
	lastWrite    atomic.Int64
	closeOnce    sync.Once
}

func newSession(s *Server, nc net.Conn) *Session {
	id := uuid.NewString()
	sess := &Session{
		id:           id,
		server:       s,
		nc:           nc,
		conn:         rtmpprotocol.NewConn(nc),
		nextStreamID: 1,
		logger:       s.logger.With("session_id", id, "remote", nc.RemoteAddr().String()),
	}
	return sess
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Session) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// lastActivity returns the later of the last inbound bytes and the last media written to a player.
func (s *Session) lastActivity() time.Time {
	last := s.conn.LastActivity()
	if w := s.lastWrite.Load(); w != 0 {
		if t := time.Unix(0, w); t.After(last) {
			last = t
		}
	}
	return last
}

// serve runs the handshake and then the message loop until the connection ends.
func (s *Session) serve() {
	defer s.close()
	defer s.cleanup()

	if err := s.handshake(); err != nil {
		s.server.metrics.Handshake("failed")
		if !errors.Is(err, io.EOF) {
			s.logger.Debug("handshake failed", "error", err)
		}
		return
	}

	s.conn.SetMaxChunkSize(s.server.opts.MaxChunkSize)
	s.setPhase(PhaseConnect)

	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		if err := s.handleMessage(msg); err != nil {
			s.logger.Warn("closing session", "phase", s.Phase().String(), "error", err)
			return
		}
	}
}

// handshake runs the server handshake with a deadline of one idle timeout.
func (s *Session) handshake() error {
	if s.server.opts.IdleTimeout > 0 {
		s.nc.SetDeadline(time.Now().Add(s.server.opts.IdleTimeout))
		defer s.nc.SetDeadline(time.Time{})
	}
	hs := s.server.newHandshake()

	c0c1 := make([]byte, rtmpprotocol.HandshakeC0C1Size)
	if _, err := io.ReadFull(s.nc, c0c1); err != nil {
		return err
	}
	reply, err := hs.HandleC0C1(c0c1)
	if err != nil {
		return err
	}
	if _, err := s.nc.Write(reply); err != nil {
		return err
	}
	s.setPhase(PhaseHandshakeC2)

	c2 := make([]byte, rtmpprotocol.HandshakeC2Size)
	if _, err := io.ReadFull(s.nc, c2); err != nil {
		return err
	}
	if err := hs.HandleC2(c2); err != nil {
		return err
	}

	kind := hs.Kind()
	s.server.metrics.Handshake(kind.String())
	if kind == rtmpprotocol.HandshakeSimple {
		s.logger.Warn("client digest not validated, using simple handshake", "handshake", kind.String())
	} else {
		s.logger.Debug("complex handshake complete", "handshake", kind.String())
	}
	return nil
}

// logReadError logs the end of the read loop at a level that matches its cause.
func (s *Session) logReadError(err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		s.logger.Debug("connection closed", "phase", s.Phase().String())
	case errors.As(err, &ne) && ne.Timeout():
		s.logger.Info("connection timed out", "phase", s.Phase().String())
	case rtmpprotocol.IsProtocolError(err):
		s.logger.Warn("protocol error", "phase", s.Phase().String(), "error", err)
	default:
		s.logger.Info("read failed", "phase", s.Phase().String(), "error", err)
	}
}

// handleMessage dispatches one non-control message.
func (s *Session) handleMessage(msg *rtmpprotocol.Message) error {
	switch msg.TypeID {
	case rtmpprotocol.MessageTypeCommandAMF0, rtmpprotocol.MessageTypeCommandAMF3:
		cmd, err := rtmpprotocol.ParseCommand(msg)
		if err != nil {
			logDecodeError(s.logger, msg.Body, err)
			return err
		}
		return s.handleCommand(cmd, msg.StreamID)
	case rtmpprotocol.MessageTypeAudio, rtmpprotocol.MessageTypeVideo,
		rtmpprotocol.MessageTypeDataAMF0, rtmpprotocol.MessageTypeDataAMF3:
		s.handleMedia(msg)
	}
	// NOTE: Shared object messages and other types are ignored
	return nil
}

// cleanup detaches the session from the registry.
func (s *Session) cleanup() {
	s.stopPublishing()
	s.stopPlaying()
}

// close closes the connection once. Safe to call from any goroutine.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
	})
}

// logDecodeError logs diagnostic info for a command that failed to decode.
func logDecodeError(logger *slog.Logger, body []byte, err error) {
	head := body
	if len(head) > 16 {
		head = head[:16]
	}
	logger.Debug("failed to decode command", "error", err, "len", len(body), "head", hex.EncodeToString(head))
}
