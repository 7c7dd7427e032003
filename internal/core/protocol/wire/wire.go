// If you are AI: This file provides big-endian integer and float helpers shared by the protocol codecs.
// Callers guarantee slice lengths; helpers panic on short input like encoding/binary.

package wire

import (
	"encoding/binary"
	"math"
)

// MaxUint24 is the largest value a 3-byte field can carry.
const MaxUint24 = 0xFFFFFF

// Uint16 reads a big-endian uint16.
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// Uint24 reads a big-endian 3-byte unsigned integer.
func Uint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32 reads a big-endian uint32.
func Uint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Uint64 reads a big-endian uint64.
func Uint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// PutUint16 writes v big-endian into b.
func PutUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// PutUint24 writes the low 24 bits of v big-endian into b.
func PutUint24(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// PutUint32 writes v big-endian into b.
func PutUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// PutUint64 writes v big-endian into b.
func PutUint64(b []byte, v uint64) {
	binary.BigEndian.PutUint64(b, v)
}

// AppendUint24 appends v as a big-endian 3-byte integer.
func AppendUint24(b []byte, v uint32) []byte {
	return append(b, byte(v>>16), byte(v>>8), byte(v))
}

// Float64 reads an IEEE 754 double stored big-endian.
func Float64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// PutFloat64 writes f as a big-endian IEEE 754 double.
func PutFloat64(b []byte, f float64) {
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
}
