// If you are AI: This file locates and validates the digest and key blocks inside C1/S1.
// Schema0 places the key block first, schema1 places the digest block first.

package rtmp

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"
)

// Schema identifies the C1 block layout.
type Schema int

// Schema0 is time, version, key block, digest block.
// Schema1 is time, version, digest block, key block.
const (
	Schema0 Schema = iota
	Schema1
)

// String returns the schema name.
func (s Schema) String() string {
	if s == Schema1 {
		return "schema1"
	}
	return "schema0"
}

const (
	blockSize    = 764
	digestSize   = 32
	s2DigestPos  = HandshakeC1Size - digestSize
	digestModulo = blockSize - digestSize - 4 // 728
	keyModulo    = blockSize - dhKeySize - 4  // 632
)

var (
	// clientKey is "Genuine Adobe Flash Player 001" followed by 32 fixed bytes.
	clientKey = []byte{
		'G', 'e', 'n', 'u', 'i', 'n', 'e', ' ', 'A', 'd', 'o', 'b', 'e', ' ',
		'F', 'l', 'a', 's', 'h', ' ', 'P', 'l', 'a', 'y', 'e', 'r', ' ',
		'0', '0', '1',
		0xF0, 0xEE, 0xC2, 0x4A, 0x80, 0x68, 0xBE, 0xE8, 0x2E, 0x00, 0xD0, 0xD1,
		0x02, 0x9E, 0x7E, 0x57, 0x6E, 0xEC, 0x5D, 0x2D, 0x29, 0x80, 0x6F, 0xAB,
		0x93, 0xB8, 0xE6, 0x36, 0xCF, 0xEB, 0x31, 0xAE,
	}
	// serverKey is "Genuine Adobe Flash Media Server 001" followed by the same 32 bytes.
	serverKey = []byte{
		'G', 'e', 'n', 'u', 'i', 'n', 'e', ' ', 'A', 'd', 'o', 'b', 'e', ' ',
		'F', 'l', 'a', 's', 'h', ' ', 'M', 'e', 'd', 'i', 'a', ' ',
		'S', 'e', 'r', 'v', 'e', 'r', ' ',
		'0', '0', '1',
		0xF0, 0xEE, 0xC2, 0x4A, 0x80, 0x68, 0xBE, 0xE8, 0x2E, 0x00, 0xD0, 0xD1,
		0x02, 0x9E, 0x7E, 0x57, 0x6E, 0xEC, 0x5D, 0x2D, 0x29, 0x80, 0x6F, 0xAB,
		0x93, 0xB8, 0xE6, 0x36, 0xCF, 0xEB, 0x31, 0xAE,
	}
	clientPartialKey = clientKey[:30]
	serverPartialKey = serverKey[:36]
)

// blockStarts returns the offsets of the key and digest blocks for a schema.
func blockStarts(s Schema) (keyStart, digestStart int) {
	if s == Schema1 {
		return 8 + blockSize, 8
	}
	return 8, 8 + blockSize
}

// digestPos returns the absolute offset of the 32-byte digest.
func digestPos(p []byte, s Schema) int {
	_, start := blockStarts(s)
	sum := int(p[start]) + int(p[start+1]) + int(p[start+2]) + int(p[start+3])
	return start + 4 + sum%digestModulo
}

// keyPos returns the absolute offset of the 128-byte public key.
func keyPos(p []byte, s Schema) int {
	start, _ := blockStarts(s)
	o := start + blockSize - 4
	sum := int(p[o]) + int(p[o+1]) + int(p[o+2]) + int(p[o+3])
	return start + sum%keyModulo
}

// makeDigest computes HMAC-SHA256 over p, skipping the 32 bytes at gap when gap >= 0.
func makeDigest(key, p []byte, gap int) []byte {
	h := hmac.New(sha256.New, key)
	if gap < 0 {
		h.Write(p)
	} else {
		h.Write(p[:gap])
		h.Write(p[gap+digestSize:])
	}
	return h.Sum(nil)
}

// c1Block holds what a validated C1 carries.
type c1Block struct {
	schema  Schema
	digest  []byte
	peerKey []byte
}

// validateC1 checks the embedded digest for one schema.
func validateC1(c1 []byte, s Schema) (*c1Block, bool) {
	pos := digestPos(c1, s)
	expected := makeDigest(clientPartialKey, c1, pos)
	if !hmac.Equal(expected, c1[pos:pos+digestSize]) {
		return nil, false
	}
	kp := keyPos(c1, s)
	return &c1Block{
		schema:  s,
		digest:  append([]byte(nil), c1[pos:pos+digestSize]...),
		peerKey: append([]byte(nil), c1[kp:kp+dhKeySize]...),
	}, true
}

// probeC1 tries schema1 first and then schema0. A nil result means neither validated.
func probeC1(c1 []byte) *c1Block {
	if blk, ok := validateC1(c1, Schema1); ok {
		return blk
	}
	if blk, ok := validateC1(c1, Schema0); ok {
		return blk
	}
	return nil
}

// fillDigestBlock writes a public key and a digest keyed by key into a 1536-byte C1/S1 body.
// The body must already hold time, version and random padding.
func fillDigestBlock(p []byte, s Schema, key, publicKey []byte) {
	if publicKey != nil {
		kp := keyPos(p, s)
		copy(p[kp:kp+dhKeySize], publicKey)
	}
	pos := digestPos(p, s)
	copy(p[pos:pos+digestSize], makeDigest(key, p, pos))
}

// GenerateC1 builds a digest-carrying C1 body for the given schema.
// The key block carries a fresh Diffie-Hellman public key.
func GenerateC1(rnd io.Reader, s Schema, epoch uint32) ([]byte, error) {
	c1 := make([]byte, HandshakeC1Size)
	if _, err := io.ReadFull(rnd, c1[8:]); err != nil {
		return nil, err
	}
	c1[0], c1[1], c1[2], c1[3] = byte(epoch>>24), byte(epoch>>16), byte(epoch>>8), byte(epoch)
	// Flash Player 9.0.124.2 style version.
	c1[4], c1[5], c1[6], c1[7] = 0x09, 0x00, 0x7c, 0x02
	key, err := generateDHKey(rnd, true)
	if err != nil {
		return nil, err
	}
	fillDigestBlock(c1, s, clientPartialKey, key.PublicBytes())
	return c1, nil
}
