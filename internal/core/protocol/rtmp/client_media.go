// If you are AI: This file moves media between a connected RTMP client and bus packets.

package rtmp

import "streamhub/internal/core/bus"

// ReadMessage returns the next media or data message of a play session.
func (c *Client) ReadMessage() (*Message, error) {
	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch msg.TypeID {
		case MessageTypeAudio, MessageTypeVideo, MessageTypeDataAMF0, MessageTypeDataAMF3:
			return msg, nil
		case MessageTypeCommandAMF0, MessageTypeCommandAMF3:
			cmd, err := ParseCommand(msg)
			if err != nil {
				return nil, err
			}
			if err := c.handleCommand(cmd); err != nil {
				return nil, err
			}
		}
	}
}

// WriteMessage sends a media message on the published stream.
func (c *Client) WriteMessage(msg *Message) error {
	msg.StreamID = c.streamID
	return c.conn.WriteMessage(msg)
}

// ReadPacket returns the next media packet of a play session, labelled with key.
func (c *Client) ReadPacket(key bus.StreamKey) (*bus.MediaPacket, error) {
	for {
		msg, err := c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if pkt, ok := PacketFromMessage(msg, key); ok {
			return pkt, nil
		}
	}
}

// WritePacket publishes a media packet.
func (c *Client) WritePacket(pkt *bus.MediaPacket) error {
	msg := MessageFromPacket(pkt, c.streamID)
	if pkt.AVType == bus.AVTypeMetadata {
		// Publishers wrap metadata in @setDataFrame.
		msg.Body = append(append([]byte(nil), setDataFrame...), pkt.Payload...)
	}
	return c.conn.WriteMessage(msg)
}

// SetChunkSize announces a larger outgoing chunk size.
func (c *Client) SetChunkSize(size uint32) error {
	return c.conn.SetWriteChunkSize(size)
}

// Close sends deleteStream when possible and closes the connection.
func (c *Client) Close() error {
	if c.phase == ClientMediaHandle {
		if c.mode == ClientPublish {
			c.call(0, "FCUnpublish", nil, c.target.Stream)
		}
		c.call(0, "deleteStream", nil, float64(c.streamID))
	}
	return c.conn.Close()
}
