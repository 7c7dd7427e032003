// If you are AI: This file advances the RTMP client state machine on server replies.

package rtmp

// handleCommand advances the state machine on a server command.
func (c *Client) handleCommand(cmd *Command) error {
	switch cmd.Name {
	case "_result":
		return c.handleResult(cmd)
	case "_error":
		_, code := c.statusOf(cmd)
		return protocolErrorf("client "+c.phase.String(), "%s failed: %s", c.pending[cmd.TransactionID], code)
	case "onStatus":
		return c.handleStatus(cmd)
	case "onBWDone", "onFCPublish", "onFCUnpublish", "|RtmpSampleAccess", "close":
		return nil
	}
	return nil
}

// statusOf returns the level and code from the info object of a reply.
func (c *Client) statusOf(cmd *Command) (string, string) {
	if info, ok := cmd.ObjectArg(0); ok {
		return StatusInfo(info)
	}
	if cmd.Object != nil {
		return StatusInfo(cmd.Object)
	}
	return "", ""
}

// handleResult processes _result replies.
func (c *Client) handleResult(cmd *Command) error {
	name, ok := c.pending[cmd.TransactionID]
	if !ok {
		return protocolErrorf("client "+c.phase.String(), "_result for unknown transaction %v", cmd.TransactionID)
	}
	delete(c.pending, cmd.TransactionID)
	switch name {
	case "connect":
		if c.phase != ClientConnectResp {
			return protocolErrorf("client "+c.phase.String(), "unexpected connect result")
		}
		if _, code := c.statusOf(cmd); code != StatusConnectSuccess {
			return protocolErrorf("client connect", "unexpected status %q", code)
		}
		return c.sendCreateStream()
	case "createStream":
		if c.phase != ClientCreateStreamResp {
			return protocolErrorf("client "+c.phase.String(), "unexpected createStream result")
		}
		id, ok := cmd.NumberArg(0)
		if !ok {
			return protocolErrorf("client create_stream_resp", "stream id missing")
		}
		c.streamID = uint32(id)
		return c.sendPlayOrPublish()
	}
	// releaseStream, FCPublish and similar need no action.
	return nil
}

// handleStatus processes onStatus notifications.
func (c *Client) handleStatus(cmd *Command) error {
	level, code := c.statusOf(cmd)
	if level == "error" {
		return protocolErrorf("client "+c.phase.String(), "server reported %s", code)
	}
	switch c.phase {
	case ClientCreatePublish:
		if code == StatusPublishStart {
			c.phase = ClientMediaHandle
		}
	case ClientCreatePlay:
		if code == StatusPlayStart {
			c.phase = ClientMediaHandle
		}
	case ClientMediaHandle:
	default:
		return protocolErrorf("client "+c.phase.String(), "unexpected onStatus %s", code)
	}
	return nil
}
