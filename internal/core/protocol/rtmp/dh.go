// If you are AI: This file implements the Diffie-Hellman key agreement used by the complex handshake.
// Group parameters are the RFC 2409 1024-bit MODP prime with generator 2.

package rtmp

import (
	"errors"
	"io"
	"math/big"
)

// dhKeySize is the serialized size of a public key or shared secret.
const dhKeySize = 128

var (
	dhPrime = mustHex("FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
		"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
		"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
		"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
		"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381" +
		"FFFFFFFFFFFFFFFF")
	dhGenerator = big.NewInt(2)

	errDHPeerKey = errors.New("peer public key out of range")
)

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("rtmp: invalid DH prime")
	}
	return n
}

// dhKey is a local Diffie-Hellman key pair.
type dhKey struct {
	private *big.Int
	public  *big.Int
}

// generateDHKey creates a key pair from rnd.
// With want128 set it retries until the public key needs all 128 bytes.
func generateDHKey(rnd io.Reader, want128 bool) (*dhKey, error) {
	buf := make([]byte, dhKeySize)
	for {
		if _, err := io.ReadFull(rnd, buf); err != nil {
			return nil, &CryptoError{Op: "dh generate", Err: err}
		}
		priv := new(big.Int).SetBytes(buf)
		if priv.Sign() == 0 {
			continue
		}
		pub := new(big.Int).Exp(dhGenerator, priv, dhPrime)
		if want128 && len(pub.Bytes()) != dhKeySize {
			continue
		}
		return &dhKey{private: priv, public: pub}, nil
	}
}

// PublicBytes returns the public key left-padded to 128 bytes.
func (k *dhKey) PublicBytes() []byte {
	out := make([]byte, dhKeySize)
	k.public.FillBytes(out)
	return out
}

// SharedSecret computes the shared secret with a peer public key.
func (k *dhKey) SharedSecret(peer []byte) ([]byte, error) {
	y := new(big.Int).SetBytes(peer)
	limit := new(big.Int).Sub(dhPrime, big.NewInt(1))
	if y.Cmp(big.NewInt(1)) <= 0 || y.Cmp(limit) >= 0 {
		return nil, &CryptoError{Op: "dh shared secret", Err: errDHPeerKey}
	}
	out := make([]byte, dhKeySize)
	new(big.Int).Exp(y, k.private, dhPrime).FillBytes(out)
	return out, nil
}
