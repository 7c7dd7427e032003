// If you are AI: This file parses and builds AMF0 command messages (connect, createStream, publish, play, onStatus).

package rtmp

import (
	"streamhub/internal/core/protocol/amf0"
)

// Command is a decoded command message.
type Command struct {
	Name          string
	TransactionID float64
	// Object is the command object; nil when the peer sent null.
	Object amf0.Object
	Args   amf0.Array
}

// ParseCommand decodes a type 20 (or type 17) command message body.
func ParseCommand(msg *Message) (*Command, error) {
	body := msg.Body
	if msg.TypeID == MessageTypeCommandAMF3 && len(body) > 0 && body[0] == 0 {
		// AMF3 command messages start with a format byte and then carry AMF0.
		body = body[1:]
	}
	values, err := amf0.DecodeAll(body)
	if err != nil {
		return nil, protocolErrorf("command", "decode: %v", err)
	}
	if len(values) == 0 {
		return nil, protocolErrorf("command", "empty command")
	}
	name, ok := amf0.AsString(values[0])
	if !ok {
		return nil, protocolErrorf("command", "command name is %T, expected string", values[0])
	}
	cmd := &Command{Name: name}
	if len(values) > 1 {
		txn, ok := values[1].(float64)
		if !ok {
			return nil, protocolErrorf("command", "%s transaction id is %T, expected number", name, values[1])
		}
		cmd.TransactionID = txn
	}
	if len(values) > 2 {
		switch obj := values[2].(type) {
		case amf0.Object:
			cmd.Object = obj
		case amf0.ECMAArray:
			cmd.Object = amf0.Object(obj)
		case nil, amf0.Undefined:
		default:
			return nil, protocolErrorf("command", "%s command object is %T", name, values[2])
		}
	}
	if len(values) > 3 {
		cmd.Args = values[3:]
	}
	return cmd, nil
}

// StringArg returns argument i as a string.
func (c *Command) StringArg(i int) (string, bool) {
	if i >= len(c.Args) {
		return "", false
	}
	return amf0.AsString(c.Args[i])
}

// NumberArg returns argument i as a number.
func (c *Command) NumberArg(i int) (float64, bool) {
	if i >= len(c.Args) {
		return 0, false
	}
	n, ok := c.Args[i].(float64)
	return n, ok
}

// ObjectArg returns argument i as an object.
func (c *Command) ObjectArg(i int) (amf0.Object, bool) {
	if i >= len(c.Args) {
		return nil, false
	}
	switch o := c.Args[i].(type) {
	case amf0.Object:
		return o, true
	case amf0.ECMAArray:
		return amf0.Object(o), true
	}
	return nil, false
}

// NewCommandMessage encodes values as a type 20 message.
func NewCommandMessage(csid, streamID uint32, values ...amf0.Value) (*Message, error) {
	body, err := amf0.EncodeCommand(amf0.Array(values))
	if err != nil {
		return nil, err
	}
	return &Message{CSID: csid, TypeID: MessageTypeCommandAMF0, StreamID: streamID, Body: body}, nil
}

// NewStatusMessage builds an onStatus message on a message stream.
func NewStatusMessage(streamID uint32, level, code, description string) (*Message, error) {
	status := amf0.Object{
		"level":       level,
		"code":        code,
		"description": description,
	}
	return NewCommandMessage(CSIDData, streamID, "onStatus", float64(0), nil, status)
}

// StatusInfo extracts level and code from an onStatus or _result info object.
func StatusInfo(obj amf0.Object) (level, code string) {
	level, _ = obj.GetString("level")
	code, _ = obj.GetString("code")
	return level, code
}
