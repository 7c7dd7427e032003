// If you are AI: This file implements the server side of the RTMP handshake.
// Complex (digest + Diffie-Hellman) handshakes are tried first; invalid C1 digests fall back to the simple echo handshake.

package rtmp

import (
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"io"

	"streamhub/internal/core/protocol/wire"
)

var (
	ErrHandshakeFailed = errors.New("handshake failed")
	errS2SelfCheck     = errors.New("S2 digest self-check failed")
)

// serverVersion is written into the S1 version field of complex handshakes.
const serverVersion = 0x0d0e0a0d

// HandshakeState is the progress of a handshake.
type HandshakeState int

const (
	HandshakeNew HandshakeState = iota
	HandshakeAwaitingC2
	HandshakeDone
)

// HandshakeKind records which variant a server handshake completed with.
type HandshakeKind int

const (
	HandshakeUnknown HandshakeKind = iota
	HandshakeSimple
	HandshakeSchema0
	HandshakeSchema1
)

// String returns the metric label of the kind.
func (k HandshakeKind) String() string {
	switch k {
	case HandshakeSimple:
		return "simple"
	case HandshakeSchema0:
		return "schema0"
	case HandshakeSchema1:
		return "schema1"
	}
	return "unknown"
}

// ServerHandshake is the server handshake engine.
// Zero values are usable; Rand defaults to crypto/rand.
type ServerHandshake struct {
	// Time is written into the S1 time field.
	Time uint32
	// Rand supplies padding and key material.
	Rand io.Reader
	// ComplexDisabled skips C1 digest probing and always answers with the simple handshake.
	ComplexDisabled bool
	// Public128 regenerates the DH key until its public half is exactly 128 bytes.
	Public128 bool

	state  HandshakeState
	kind   HandshakeKind
	secret []byte
}

// NewServerHandshake creates a server handshake engine stamped with epoch.
func NewServerHandshake(epoch uint32) *ServerHandshake {
	return &ServerHandshake{Time: epoch, Public128: true}
}

// State returns the handshake progress.
func (h *ServerHandshake) State() HandshakeState {
	return h.state
}

// Kind returns the variant negotiated by HandleC0C1.
func (h *ServerHandshake) Kind() HandshakeKind {
	return h.kind
}

// SharedSecret returns the Diffie-Hellman secret of a complex handshake, or nil.
func (h *ServerHandshake) SharedSecret() []byte {
	return h.secret
}

func (h *ServerHandshake) rand() io.Reader {
	if h.Rand != nil {
		return h.Rand
	}
	return rand.Reader
}

// HandleC0C1 consumes exactly 1537 bytes of C0+C1 and returns the 3073-byte S0S1S2 reply.
func (h *ServerHandshake) HandleC0C1(c0c1 []byte) ([]byte, error) {
	if h.state != HandshakeNew {
		return nil, protocolErrorf("handshake", "C0C1 received in state %d", h.state)
	}
	if len(c0c1) != HandshakeC0C1Size {
		return nil, protocolErrorf("handshake", "C0C1 is %d bytes, expected %d", len(c0c1), HandshakeC0C1Size)
	}
	c1 := c0c1[1:]

	reply := make([]byte, HandshakeS0S1S2Size)
	reply[0] = c0c1[0]
	s1 := reply[1 : 1+HandshakeC1Size]
	s2 := reply[1+HandshakeC1Size:]

	var blk *c1Block
	if !h.ComplexDisabled {
		blk = probeC1(c1)
	}
	if blk == nil {
		if err := h.simpleReply(c1, s1, s2); err != nil {
			return nil, err
		}
		h.kind = HandshakeSimple
	} else {
		if err := h.complexReply(blk, s1, s2); err != nil {
			return nil, err
		}
		h.kind = HandshakeSchema0
		if blk.schema == Schema1 {
			h.kind = HandshakeSchema1
		}
	}
	h.state = HandshakeAwaitingC2
	return reply, nil
}

// simpleReply writes S1 as time, zero version, random padding and S2 as an echo of C1.
func (h *ServerHandshake) simpleReply(c1, s1, s2 []byte) error {
	wire.PutUint32(s1[0:4], h.Time)
	wire.PutUint32(s1[4:8], 0)
	if _, err := io.ReadFull(h.rand(), s1[8:]); err != nil {
		return err
	}
	copy(s2, c1)
	return nil
}

// complexReply builds S1 with our DH public key and digest, and S2 keyed by the C1 digest.
func (h *ServerHandshake) complexReply(blk *c1Block, s1, s2 []byte) error {
	key, err := generateDHKey(h.rand(), h.Public128)
	if err != nil {
		return err
	}
	secret, err := key.SharedSecret(blk.peerKey)
	if err != nil {
		return err
	}
	h.secret = secret

	wire.PutUint32(s1[0:4], h.Time)
	wire.PutUint32(s1[4:8], serverVersion)
	if _, err := io.ReadFull(h.rand(), s1[8:]); err != nil {
		return err
	}
	fillDigestBlock(s1, blk.schema, serverPartialKey, key.PublicBytes())

	if _, err := io.ReadFull(h.rand(), s2); err != nil {
		return err
	}
	s2Key := makeDigest(serverKey, blk.digest, -1)
	copy(s2[s2DigestPos:], makeDigest(s2Key, s2[:s2DigestPos], -1))
	if !ValidateS2(s2, blk.digest) {
		return &CryptoError{Op: "handshake", Err: errS2SelfCheck}
	}
	return nil
}

// ValidateS2 checks the trailing digest of S2 against the C1 digest it answers.
func ValidateS2(s2, c1Digest []byte) bool {
	if len(s2) != HandshakeC1Size {
		return false
	}
	s2Key := makeDigest(serverKey, c1Digest, -1)
	return hmac.Equal(makeDigest(s2Key, s2[:s2DigestPos], -1), s2[s2DigestPos:])
}

// HandleC2 consumes the 1536-byte C2. Its content is not validated.
func (h *ServerHandshake) HandleC2(c2 []byte) error {
	if h.state != HandshakeAwaitingC2 {
		return protocolErrorf("handshake", "C2 received in state %d", h.state)
	}
	if len(c2) != HandshakeC2Size {
		return protocolErrorf("handshake", "C2 is %d bytes, expected %d", len(c2), HandshakeC2Size)
	}
	h.state = HandshakeDone
	return nil
}

// Perform runs the whole server handshake over conn.
// Reads C0/C1, sends S0/S1/S2 in one write, reads C2.
func (h *ServerHandshake) Perform(conn io.ReadWriter) error {
	c0c1 := make([]byte, HandshakeC0C1Size)
	if _, err := io.ReadFull(conn, c0c1); err != nil {
		return err
	}
	reply, err := h.HandleC0C1(c0c1)
	if err != nil {
		return err
	}
	if _, err := conn.Write(reply); err != nil {
		return err
	}
	c2 := make([]byte, HandshakeC2Size)
	if _, err := io.ReadFull(conn, c2); err != nil {
		return err
	}
	return h.HandleC2(c2)
}

// PerformServerHandshake performs the server side of RTMP handshake with default settings.
func PerformServerHandshake(conn io.ReadWriter, epoch uint32) (HandshakeKind, error) {
	h := NewServerHandshake(epoch)
	if err := h.Perform(conn); err != nil {
		return h.Kind(), err
	}
	return h.Kind(), nil
}
