// If you are AI: This file implements the RTMP client session used by relays.
// The client drives connect, createStream and publish or play, validating each reply against its phase.

package rtmp

import (
	"context"
	"net"
	"time"

	"streamhub/internal/core/protocol/amf0"
	"streamhub/internal/core/protocol/wire"
)

// ClientMode selects what the client does after createStream.
type ClientMode int

const (
	ClientPlay ClientMode = iota
	ClientPublish
)

// ClientPhase is the client state machine position.
type ClientPhase int

const (
	ClientC0C1 ClientPhase = iota
	ClientConnect
	ClientConnectResp
	ClientCreateStream
	ClientCreateStreamResp
	ClientCreatePlay
	ClientCreatePublish
	ClientMediaHandle
)

var clientPhaseNames = [...]string{
	"c0c1", "connect", "connect_resp", "create_stream", "create_stream_resp",
	"create_play", "create_publish", "media_handle",
}

// String returns the phase name.
func (p ClientPhase) String() string {
	if int(p) < len(clientPhaseNames) {
		return clientPhaseNames[p]
	}
	return "unknown"
}

// Client is an RTMP client session.
type Client struct {
	conn     *Conn
	target   *Target
	mode     ClientMode
	phase    ClientPhase
	streamID uint32
	nextTxn  float64
	pending  map[float64]string
}

// Dial connects to rawURL and runs the client state machine until media can flow.
func Dial(ctx context.Context, rawURL string, mode ClientMode) (*Client, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", target.Host)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		nc.SetDeadline(deadline)
	}
	c, err := NewClient(nc, target, mode)
	if err != nil {
		nc.Close()
		return nil, err
	}
	nc.SetDeadline(time.Time{})
	return c, nil
}

// NewClient runs the handshake and command exchange over an established connection.
func NewClient(nc net.Conn, target *Target, mode ClientMode) (*Client, error) {
	hs := &ClientHandshake{Time: uint32(time.Now().Unix())}
	if err := hs.Perform(nc); err != nil {
		return nil, err
	}
	c := &Client{
		conn:    NewConn(nc),
		target:  target,
		mode:    mode,
		phase:   ClientConnect,
		nextTxn: 1,
		pending: make(map[float64]string),
	}
	if err := c.sendConnect(); err != nil {
		return nil, err
	}
	for c.phase != ClientMediaHandle {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msg.TypeID != MessageTypeCommandAMF0 && msg.TypeID != MessageTypeCommandAMF3 {
			continue
		}
		cmd, err := ParseCommand(msg)
		if err != nil {
			return nil, err
		}
		if err := c.handleCommand(cmd); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Phase returns the current phase.
func (c *Client) Phase() ClientPhase {
	return c.phase
}

// StreamID returns the message stream allocated by createStream.
func (c *Client) StreamID() uint32 {
	return c.streamID
}

// Conn returns the chunk-level connection.
func (c *Client) Conn() *Conn {
	return c.conn
}

// command builds a command message with a fresh transaction id.
func (c *Client) command(streamID uint32, name string, args ...amf0.Value) (*Message, error) {
	txn := c.nextTxn
	c.nextTxn++
	c.pending[txn] = name
	values := append([]amf0.Value{name, txn}, args...)
	csid := uint32(CSIDCommand)
	if streamID != 0 {
		csid = CSIDData
	}
	return NewCommandMessage(csid, streamID, values...)
}

// call sends a command with a fresh transaction id.
func (c *Client) call(streamID uint32, name string, args ...amf0.Value) error {
	msg, err := c.command(streamID, name, args...)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(msg)
}

// sendConnect sends connect and moves to connect_resp.
func (c *Client) sendConnect() error {
	obj := amf0.Object{
		"app":      c.target.App,
		"type":     "nonprivate",
		"flashVer": "FMLE/3.0 (compatible; streamhub)",
		"tcUrl":    c.target.TcURL,
	}
	if c.mode == ClientPlay {
		obj["fpad"] = false
		obj["capabilities"] = float64(15)
		obj["audioCodecs"] = float64(0x0FFF)
		obj["videoCodecs"] = float64(0x00FF)
		obj["videoFunction"] = float64(1)
	}
	if err := c.call(0, "connect", obj); err != nil {
		return err
	}
	c.phase = ClientConnectResp
	return nil
}

// sendCreateStream sends createStream, preceded by releaseStream and FCPublish when publishing.
func (c *Client) sendCreateStream() error {
	c.phase = ClientCreateStream
	var msgs []*Message
	if c.mode == ClientPublish {
		for _, name := range []string{"releaseStream", "FCPublish"} {
			msg, err := c.command(0, name, nil, c.target.Stream)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
	}
	msg, err := c.command(0, "createStream", nil)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessages(append(msgs, msg)...); err != nil {
		return err
	}
	c.phase = ClientCreateStreamResp
	return nil
}

// sendPlayOrPublish issues the final command for the mode.
func (c *Client) sendPlayOrPublish() error {
	if c.mode == ClientPublish {
		c.phase = ClientCreatePublish
		return c.call(c.streamID, "publish", nil, c.target.Stream, "live")
	}
	c.phase = ClientCreatePlay
	play, err := c.command(c.streamID, "play", nil, c.target.Stream, float64(-1))
	if err != nil {
		return err
	}
	return c.conn.WriteMessages(play, ControlMessage(MessageTypeUserCtrl, setBufferLength(c.streamID, 3000)))
}

// setBufferLength builds a SetBufferLength user control body.
func setBufferLength(streamID, ms uint32) []byte {
	body := make([]byte, 10)
	copy(body, CreateUserControl(ControlSetBufferLength, streamID))
	wire.PutUint32(body[6:10], ms)
	return body
}
