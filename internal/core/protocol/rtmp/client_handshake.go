// If you are AI: This file implements the RTMP client-side handshake.
// Used by relay tasks to connect to remote RTMP servers; S1/S2 digests are not verified.

package rtmp

import (
	"crypto/rand"
	"io"

	"streamhub/internal/core/protocol/wire"
)

// ClientHandshake is the client handshake engine.
type ClientHandshake struct {
	// Time is written into the C1 time field.
	Time uint32
	// Rand supplies padding.
	Rand io.Reader
	// Complex embeds a schema0 digest and DH key in C1 for servers that require it.
	Complex bool

	state HandshakeState
}

func (h *ClientHandshake) rand() io.Reader {
	if h.Rand != nil {
		return h.Rand
	}
	return rand.Reader
}

// C0C1 returns the 1537-byte opening message.
func (h *ClientHandshake) C0C1() ([]byte, error) {
	if h.state != HandshakeNew {
		return nil, protocolErrorf("client handshake", "C0C1 already sent")
	}
	out := make([]byte, HandshakeC0C1Size)
	out[0] = RTMPVersion
	if h.Complex {
		c1, err := GenerateC1(h.rand(), Schema0, h.Time)
		if err != nil {
			return nil, err
		}
		copy(out[1:], c1)
	} else if _, err := io.ReadFull(h.rand(), out[1:]); err != nil {
		return nil, err
	}
	h.state = HandshakeAwaitingC2
	return out, nil
}

// HandleS0S1S2 consumes the 3073-byte server reply and returns C2.
// C2 carries the S1 time followed by random padding.
func (h *ClientHandshake) HandleS0S1S2(reply []byte) ([]byte, error) {
	if h.state != HandshakeAwaitingC2 {
		return nil, protocolErrorf("client handshake", "S0S1S2 received before C0C1")
	}
	if len(reply) != HandshakeS0S1S2Size {
		return nil, protocolErrorf("client handshake", "S0S1S2 is %d bytes, expected %d", len(reply), HandshakeS0S1S2Size)
	}
	if reply[0] != RTMPVersion {
		return nil, protocolErrorf("client handshake", "unsupported server version %d", reply[0])
	}
	s1 := reply[1 : 1+HandshakeC1Size]
	c2 := make([]byte, HandshakeC2Size)
	wire.PutUint32(c2[0:4], wire.Uint32(s1[0:4]))
	if _, err := io.ReadFull(h.rand(), c2[4:]); err != nil {
		return nil, err
	}
	h.state = HandshakeDone
	return c2, nil
}

// Perform runs the client handshake over conn.
// Sends C0/C1, reads S0/S1/S2, sends C2.
func (h *ClientHandshake) Perform(conn io.ReadWriter) error {
	c0c1, err := h.C0C1()
	if err != nil {
		return err
	}
	if _, err := conn.Write(c0c1); err != nil {
		return err
	}
	reply := make([]byte, HandshakeS0S1S2Size)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return err
	}
	c2, err := h.HandleS0S1S2(reply)
	if err != nil {
		return err
	}
	_, err = conn.Write(c2)
	return err
}

// PerformClientHandshake performs the simple client handshake.
func PerformClientHandshake(conn io.ReadWriter, epoch uint32) error {
	h := &ClientHandshake{Time: epoch}
	return h.Perform(conn)
}
