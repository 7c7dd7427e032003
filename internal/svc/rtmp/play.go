// If you are AI: This file handles RTMP playback.
// A player is a queued registry writer drained by a goroutine that frames packets onto the connection.

package rtmp

import (
	"context"
	"errors"
	"time"

	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// player pumps packets from a queue writer to the session connection.
type player struct {
	writer *bus.QueueWriter
	cancel context.CancelFunc
	done   chan struct{}
}

// handlePlay subscribes the session to app/name.
// Sends StreamIsRecorded, StreamBegin and the Reset, Start, Data.Start and PublishNotify statuses.
func (s *Session) handlePlay(cmd *rtmpprotocol.Command, streamID uint32) error {
	if s.Phase() != PhaseCreatePublishOrPlay {
		return s.phaseError("play")
	}
	name, err := streamName(cmd)
	if err != nil {
		return err
	}
	if streamID == 0 {
		streamID = s.req.StreamID
	}
	key := bus.NewStreamKey(s.req.App, name)
	s.req.StreamName = name
	s.req.Key = key
	s.req.StreamID = streamID
	s.req.IsPublish = false

	if err := s.conn.SendUserControl(rtmpprotocol.ControlStreamIsRecorded, streamID); err != nil {
		return err
	}
	if err := s.conn.SendUserControl(rtmpprotocol.ControlStreamBegin, streamID); err != nil {
		return err
	}
	statuses := []struct{ code, desc string }{
		{rtmpprotocol.StatusPlayReset, "Playing and resetting " + key.String() + "."},
		{rtmpprotocol.StatusPlayStart, "Started playing " + key.String() + "."},
		{rtmpprotocol.StatusDataStart, "Started playing " + key.String() + "."},
		{rtmpprotocol.StatusPlayPublish, key.String() + " is now published."},
	}
	for _, st := range statuses {
		if err := s.sendStatus(streamID, "status", st.code, st.desc); err != nil {
			return err
		}
	}

	s.startPlaying(key, streamID)
	s.req.IsReady = true
	s.setPhase(PhaseMediaHandle)
	s.logger.Info("play started", "stream", key.String(), "publisher", s.server.registry.HasPublisher(key))
	return nil
}

// startPlaying registers a queue writer and starts its pump.
func (s *Session) startPlaying(key bus.StreamKey, streamID uint32) {
	opts := s.server.opts
	ctx, cancel := context.WithCancel(context.Background())
	p := &player{
		writer: bus.NewQueueWriter(key, opts.QueueSize, opts.Backpressure),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.player = p
	s.server.registry.AddPlayer(p.writer)
	go s.pump(ctx, p, streamID)
}

// pump writes queued packets until the writer closes or a write fails.
// An evicted writer closes the session.
func (s *Session) pump(ctx context.Context, p *player, streamID uint32) {
	defer close(p.done)
	for {
		pkt, err := p.writer.Next(ctx)
		if err != nil {
			if errors.Is(err, bus.ErrWriterClosed) && ctx.Err() == nil {
				s.logger.Warn("player fell behind, closing", "stream", p.writer.Key().String(), "dropped", p.writer.Dropped())
				s.close()
			}
			return
		}
		if err := s.conn.WriteMessage(rtmpprotocol.MessageFromPacket(pkt, streamID)); err != nil {
			s.logger.Debug("player write failed", "error", err)
			s.close()
			return
		}
		s.lastWrite.Store(time.Now().UnixNano())
	}
}

// stopPlaying unregisters the writer and waits for the pump to exit.
func (s *Session) stopPlaying() {
	p := s.player
	if p == nil {
		return
	}
	s.player = nil
	s.server.registry.RemovePlayer(p.writer)
	p.cancel()
	p.writer.Close()
	<-p.done
	s.logger.Info("play stopped", "stream", p.writer.Key().String())
}
