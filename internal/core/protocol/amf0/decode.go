// If you are AI: This file implements AMF0 decoding for RTMP command and data messages.
// Reference, AMF3 switch, XML and typed objects fail fast with ErrUnsupportedType.

package amf0

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"streamhub/internal/core/protocol/wire"
)

// maxDepth bounds nesting of objects and arrays.
const maxDepth = 64

// Decode reads and decodes a single AMF0 value from the reader.
// Returns io.EOF only when the reader is exhausted before the type marker.
func Decode(r io.Reader) (Value, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}
	return decodeValue(r, marker[0], 0)
}

// DecodeAll decodes a sequence of top-level values until the input is exhausted.
func DecodeAll(b []byte) (Array, error) {
	return DecodeCommand(bytes.NewReader(b))
}

// DecodeCommand decodes an AMF0 command message.
// RTMP commands are a sequence of AMF0 values:
// command_name (string), transaction_id (number), command_object (object/null), ...args
func DecodeCommand(r io.Reader) (Array, error) {
	arr := make(Array, 0, 4)
	for {
		v, err := Decode(r)
		if err == io.EOF {
			return arr, nil
		}
		if err != nil {
			return arr, err
		}
		arr = append(arr, v)
	}
}

// DecodeString reads an AMF0 string value.
func DecodeString(r io.Reader) (string, error) {
	v, err := Decode(r)
	if err != nil {
		return "", err
	}
	s, ok := asString(v)
	if !ok {
		return "", ErrUnexpectedType
	}
	return s, nil
}

// decodeValue dispatches on an already consumed type marker.
func decodeValue(r io.Reader, marker byte, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidData, maxDepth)
	}
	switch marker {
	case TypeNumber:
		return decodeNumber(r)
	case TypeBoolean:
		b, err := readN(r, 1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case TypeString:
		return decodeString(r)
	case TypeLongString:
		s, err := decodeLongString(r)
		return LongString(s), err
	case TypeNull:
		return nil, nil
	case TypeUndefined:
		return Undefined{}, nil
	case TypeObject:
		props, err := decodeProperties(r, depth)
		if err != nil {
			return nil, err
		}
		return Object(props), nil
	case TypeECMAArray:
		// The count is advisory; the array ends at the object end marker.
		if _, err := readN(r, 4); err != nil {
			return nil, err
		}
		props, err := decodeProperties(r, depth)
		if err != nil {
			return nil, err
		}
		return ECMAArray(props), nil
	case TypeStrictArray:
		return decodeStrictArray(r, depth)
	case TypeDate:
		b, err := readN(r, 10)
		if err != nil {
			return nil, err
		}
		return Date{Millis: wire.Float64(b[0:8]), TZ: int16(wire.Uint16(b[8:10]))}, nil
	case TypeReference, TypeMovieClip, TypeUnsupported, TypeRecordSet,
		TypeXMLDocument, TypeTypedObject, TypeAVMPlus:
		return nil, fmt.Errorf("%w: marker 0x%02x", ErrUnsupportedType, marker)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownMarker, marker)
	}
}

// readN reads exactly n bytes, mapping short reads to ErrTruncated.
func readN(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrTruncated
	}
	if lr, ok := r.(interface{ Len() int }); ok && lr.Len() < n {
		return nil, ErrTruncated
	}
	if n > growChunk {
		return readGrowing(r, int64(n))
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf, nil
}

// growChunk is the largest length allocated up front for a reader of unknown size.
const growChunk = 64 * 1024

// readGrowing reads n bytes into a buffer that grows with the data actually received.
func readGrowing(r io.Reader, n int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(growChunk)
	copied, err := io.CopyN(&buf, r, n)
	if copied < n {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeNumber decodes an AMF0 number (double precision float64).
func decodeNumber(r io.Reader) (float64, error) {
	b, err := readN(r, 8)
	if err != nil {
		return 0, err
	}
	return wire.Float64(b), nil
}

// decodeString decodes a UTF-8 string with a 16-bit length.
func decodeString(r io.Reader) (string, error) {
	b, err := readN(r, 2)
	if err != nil {
		return "", err
	}
	length := int(wire.Uint16(b))
	if length == 0 {
		return "", nil
	}
	buf, err := readN(r, length)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeLongString decodes a UTF-8 string with a 32-bit length.
func decodeLongString(r io.Reader) (string, error) {
	b, err := readN(r, 4)
	if err != nil {
		return "", err
	}
	length := int64(wire.Uint32(b))
	if length > math.MaxInt {
		return "", ErrTruncated
	}
	buf, err := readN(r, int(length))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeProperties reads key/value pairs until an empty key followed by the end marker.
func decodeProperties(r io.Reader, depth int) (map[string]Value, error) {
	props := make(map[string]Value)
	for {
		key, err := decodeString(r)
		if err != nil {
			return nil, err
		}
		marker, err := readN(r, 1)
		if err != nil {
			return nil, err
		}
		if key == "" && marker[0] == TypeObjectEnd {
			return props, nil
		}
		value, err := decodeValue(r, marker[0], depth+1)
		if err != nil {
			return nil, err
		}
		props[key] = value
	}
}

// decodeStrictArray reads a 32-bit count followed by that many values.
func decodeStrictArray(r io.Reader, depth int) (Array, error) {
	b, err := readN(r, 4)
	if err != nil {
		return nil, err
	}
	count := wire.Uint32(b)
	arr := make(Array, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		marker, err := readN(r, 1)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(r, marker[0], depth+1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}
