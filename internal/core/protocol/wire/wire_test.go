// If you are AI: This file tests the big-endian helpers.

package wire

import (
	"bytes"
	"math"
	"testing"
)

// Test that each width round-trips at its boundary values.
func TestIntegersRoundTrip(t *testing.T) {
	b := make([]byte, 8)

	for _, v := range []uint16{0, 1, 0x1234, math.MaxUint16} {
		PutUint16(b, v)
		if got := Uint16(b); got != v {
			t.Errorf("Uint16: expected %d, got %d", v, got)
		}
	}
	for _, v := range []uint32{0, 1, 0x123456, MaxUint24} {
		PutUint24(b, v)
		if got := Uint24(b); got != v {
			t.Errorf("Uint24: expected %d, got %d", v, got)
		}
	}
	for _, v := range []uint32{0, 0xdeadbeef, math.MaxUint32} {
		PutUint32(b, v)
		if got := Uint32(b); got != v {
			t.Errorf("Uint32: expected %d, got %d", v, got)
		}
	}
	for _, v := range []uint64{0, 0x0102030405060708, math.MaxUint64} {
		PutUint64(b, v)
		if got := Uint64(b); got != v {
			t.Errorf("Uint64: expected %d, got %d", v, got)
		}
	}
}

// Test the byte order of the 24-bit writers.
func TestUint24Layout(t *testing.T) {
	b := make([]byte, 3)
	PutUint24(b, 0x0a0b0c)
	if !bytes.Equal(b, []byte{0x0a, 0x0b, 0x0c}) {
		t.Fatalf("unexpected layout % x", b)
	}
	if got := AppendUint24(nil, 0x0a0b0c); !bytes.Equal(got, b) {
		t.Fatalf("AppendUint24 mismatch: % x", got)
	}
	// Bits above 24 are dropped.
	PutUint24(b, 0xff000001)
	if Uint24(b) != 1 {
		t.Fatalf("expected high byte to be dropped, got %#x", Uint24(b))
	}
}

// Test float conversion including the AMF encoding of 1.0.
func TestFloat64(t *testing.T) {
	b := make([]byte, 8)
	PutFloat64(b, 1.0)
	if !bytes.Equal(b, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}) {
		t.Fatalf("unexpected encoding of 1.0: % x", b)
	}
	for _, f := range []float64{0, -2.5, math.Pi, math.MaxFloat64, math.Inf(-1)} {
		PutFloat64(b, f)
		if got := Float64(b); got != f {
			t.Errorf("expected %v, got %v", f, got)
		}
	}
}
