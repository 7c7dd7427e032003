// If you are AI: This file handles the RTMP publish lifecycle and its integration with the registry.
// A publisher owns its stream key until it disconnects or deletes the stream.

package rtmp

import (
	"errors"
	"fmt"

	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// errPublishRejected closes a session whose publish was refused.
var errPublishRejected = errors.New("publish rejected")

// handlePublish attaches the session as publisher of app/name.
// Sends StreamBegin and onStatus NetStream.Publish.Start on success, Publish.BadName when the key is taken.
func (s *Session) handlePublish(cmd *rtmpprotocol.Command, streamID uint32) error {
	if s.Phase() != PhaseCreatePublishOrPlay {
		return s.phaseError("publish")
	}
	name, err := streamName(cmd)
	if err != nil {
		return err
	}
	if streamID == 0 {
		streamID = s.req.StreamID
	}
	key := bus.NewStreamKey(s.req.App, name)

	if err := s.server.registry.AddPublisher(key, s.id); err != nil {
		s.logger.Warn("publish rejected", "stream", key.String(), "error", err)
		s.sendStatus(streamID, "error", rtmpprotocol.StatusPublishBadName, "Stream already publishing")
		return fmt.Errorf("%w: %v", errPublishRejected, err)
	}
	s.publishing = true
	s.req.StreamName = name
	s.req.Key = key
	s.req.StreamID = streamID
	s.req.IsPublish = true
	s.req.IsReady = true
	s.setPhase(PhaseMediaHandle)
	s.logger.Info("publish started", "stream", key.String())

	if err := s.conn.SendUserControl(rtmpprotocol.ControlStreamBegin, streamID); err != nil {
		return err
	}
	return s.sendStatus(streamID, "status", rtmpprotocol.StatusPublishStart, key.String()+" is now published.")
}

// handleMedia converts a media message and writes it to the registry.
func (s *Session) handleMedia(msg *rtmpprotocol.Message) {
	if !s.publishing {
		return
	}
	pkt, ok := rtmpprotocol.PacketFromMessage(msg, s.req.Key)
	if !ok {
		return
	}
	s.server.metrics.MediaPacket(pkt.AVType.String())
	if err := s.server.registry.WriteMediaPacket(pkt); err != nil {
		s.logger.Debug("writers evicted", "stream", s.req.Key.String(), "error", err)
	}
}

// stopPublishing releases the stream key.
func (s *Session) stopPublishing() {
	if !s.publishing {
		return
	}
	s.publishing = false
	if s.server.registry.RemovePublisher(s.req.Key, s.id) {
		s.logger.Info("publish stopped", "stream", s.req.Key.String())
	}
}
