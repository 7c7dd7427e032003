// If you are AI: This file handles RTMP command messages.
// Implements connect, releaseStream, FCPublish, createStream, publish, play, deleteStream and closeStream.

package rtmp

import (
	"fmt"
	"strings"

	"streamhub/internal/core/protocol/amf0"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// phaseError reports a command that arrived in the wrong phase.
func (s *Session) phaseError(command string) error {
	return &rtmpprotocol.ProtocolError{
		Op:  command,
		Msg: fmt.Sprintf("not allowed in phase %s", s.Phase()),
	}
}

// handleCommand dispatches a decoded command.
// streamID is the message stream the command arrived on.
func (s *Session) handleCommand(cmd *rtmpprotocol.Command, streamID uint32) error {
	s.logger.Debug("command", "name", cmd.Name, "txn", cmd.TransactionID, "stream_id", streamID)
	switch cmd.Name {
	case "connect":
		return s.handleConnect(cmd)
	case "releaseStream", "FCPublish":
		return s.replyResult(cmd.TransactionID, nil)
	case "createStream":
		return s.handleCreateStream(cmd)
	case "publish":
		return s.handlePublish(cmd, streamID)
	case "play":
		return s.handlePlay(cmd, streamID)
	case "FCUnpublish":
		return nil
	case "deleteStream", "closeStream":
		s.handleDeleteStream()
		return nil
	case "getStreamLength", "receiveAudio", "receiveVideo", "_checkbw", "onBWDone":
		return nil
	}
	s.logger.Debug("unhandled command", "name", cmd.Name)
	return nil
}

// sendCommand writes a command on the command chunk stream.
func (s *Session) sendCommand(streamID uint32, values ...amf0.Value) error {
	msg, err := rtmpprotocol.NewCommandMessage(rtmpprotocol.CSIDCommand, streamID, values...)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(msg)
}

// replyResult sends _result for a transaction.
func (s *Session) replyResult(txn float64, values ...amf0.Value) error {
	return s.sendCommand(0, append([]amf0.Value{"_result", txn}, values...)...)
}

// sendStatus sends an onStatus notification on a message stream.
func (s *Session) sendStatus(streamID uint32, level, code, description string) error {
	msg, err := rtmpprotocol.NewStatusMessage(streamID, level, code, description)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(msg)
}

// handleConnect records the application and replies with window, bandwidth, chunk size and _result.
func (s *Session) handleConnect(cmd *rtmpprotocol.Command) error {
	if s.Phase() != PhaseConnect {
		return s.phaseError("connect")
	}
	if cmd.Object == nil {
		return &rtmpprotocol.ProtocolError{Op: "connect", Msg: "missing command object"}
	}
	app, ok := cmd.Object.GetString("app")
	if !ok {
		return &rtmpprotocol.ProtocolError{Op: "connect", Msg: "app is not a string"}
	}
	// Some encoders append a trailing slash or a query to the app.
	app = strings.TrimSuffix(app, "/")
	if i := strings.IndexByte(app, '?'); i >= 0 {
		app = app[:i]
	}
	if app == "" {
		return &rtmpprotocol.ProtocolError{Op: "connect", Msg: "empty app"}
	}
	s.req.App = app
	s.req.TcURL, _ = cmd.Object.GetString("tcUrl")
	s.req.FlashVer, _ = cmd.Object.GetString("flashVer")
	s.logger = s.logger.With("app", app)

	opts := s.server.opts
	if err := s.conn.SendWindowAckSize(opts.WindowAckSize); err != nil {
		return err
	}
	if err := s.conn.SendPeerBandwidth(opts.WindowAckSize, rtmpprotocol.LimitDynamic); err != nil {
		return err
	}
	if err := s.conn.SetWriteChunkSize(opts.ChunkSize); err != nil {
		return err
	}

	props := amf0.Object{
		"fmsVer":       rtmpprotocol.ServerFMSVersion,
		"capabilities": float64(rtmpprotocol.ServerCapabilities),
		"mode":         float64(1),
	}
	encoding, _ := cmd.Object.GetNumber("objectEncoding")
	info := amf0.Object{
		"level":          "status",
		"code":           rtmpprotocol.StatusConnectSuccess,
		"description":    "Connection succeeded.",
		"objectEncoding": encoding,
	}
	if err := s.replyResult(cmd.TransactionID, props, info); err != nil {
		return err
	}
	s.setPhase(PhaseCreateStream)
	s.logger.Info("client connected", "tc_url", s.req.TcURL, "flash_ver", s.req.FlashVer)
	return nil
}

// handleCreateStream allocates a message stream id.
func (s *Session) handleCreateStream(cmd *rtmpprotocol.Command) error {
	switch s.Phase() {
	case PhaseCreateStream, PhaseCreatePublishOrPlay:
	default:
		return s.phaseError("createStream")
	}
	id := s.nextStreamID
	s.nextStreamID++
	s.req.StreamID = id
	if err := s.replyResult(cmd.TransactionID, nil, float64(id)); err != nil {
		return err
	}
	s.setPhase(PhaseCreatePublishOrPlay)
	return nil
}

// streamName extracts the stream name argument, dropping any query string.
func streamName(cmd *rtmpprotocol.Command) (string, error) {
	name, ok := cmd.StringArg(0)
	if !ok {
		return "", &rtmpprotocol.ProtocolError{Op: cmd.Name, Msg: "stream name is not a string"}
	}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", &rtmpprotocol.ProtocolError{Op: cmd.Name, Msg: "empty stream name"}
	}
	return name, nil
}

// handleDeleteStream ends publishing or playback but keeps the connection.
func (s *Session) handleDeleteStream() {
	if s.publishing {
		s.stopPublishing()
		s.sendStatus(s.req.StreamID, "status", rtmpprotocol.StatusUnpublish, s.req.Key.String()+" is now unpublished.")
	}
	s.stopPlaying()
	if s.Phase() == PhaseMediaHandle {
		s.setPhase(PhaseCreateStream)
	}
	s.req.IsReady = false
}
