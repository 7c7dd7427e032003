// If you are AI: This file implements AMF0 encoding for RTMP command and data messages.
// Object keys are written in sorted order so encoded bytes are deterministic.

package amf0

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"

	"streamhub/internal/core/protocol/wire"
)

// Encode writes an AMF0 value to the writer.
// Go integer types are written as numbers; unknown types return ErrUnsupportedType.
func Encode(w io.Writer, val Value) error {
	var buf bytes.Buffer
	if err := appendValue(&buf, val); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeCommand encodes a command as consecutive AMF0 values.
// RTMP command bodies are not wrapped in a strict array.
func EncodeCommand(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range arr {
		if err := appendValue(&buf, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// appendValue writes the marker and payload of one value.
func appendValue(buf *bytes.Buffer, val Value) error {
	switch v := val.(type) {
	case float64:
		appendNumber(buf, v)
	case float32:
		appendNumber(buf, float64(v))
	case int:
		appendNumber(buf, float64(v))
	case int32:
		appendNumber(buf, float64(v))
	case int64:
		appendNumber(buf, float64(v))
	case uint32:
		appendNumber(buf, float64(v))
	case bool:
		buf.WriteByte(TypeBoolean)
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case string:
		if len(v) > math.MaxUint16 {
			appendLongString(buf, v)
			return nil
		}
		buf.WriteByte(TypeString)
		appendKey(buf, v)
	case LongString:
		appendLongString(buf, string(v))
	case nil:
		buf.WriteByte(TypeNull)
	case Undefined:
		buf.WriteByte(TypeUndefined)
	case Object:
		buf.WriteByte(TypeObject)
		return appendProperties(buf, v)
	case map[string]Value:
		buf.WriteByte(TypeObject)
		return appendProperties(buf, v)
	case ECMAArray:
		buf.WriteByte(TypeECMAArray)
		var count [4]byte
		wire.PutUint32(count[:], uint32(len(v)))
		buf.Write(count[:])
		return appendProperties(buf, v)
	case Array:
		buf.WriteByte(TypeStrictArray)
		var count [4]byte
		wire.PutUint32(count[:], uint32(len(v)))
		buf.Write(count[:])
		for _, item := range v {
			if err := appendValue(buf, item); err != nil {
				return err
			}
		}
	case Date:
		buf.WriteByte(TypeDate)
		var b [10]byte
		wire.PutFloat64(b[0:8], v.Millis)
		wire.PutUint16(b[8:10], uint16(v.TZ))
		buf.Write(b[:])
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, val)
	}
	return nil
}

// appendNumber writes an AMF0 number.
func appendNumber(buf *bytes.Buffer, num float64) {
	var b [9]byte
	b[0] = TypeNumber
	wire.PutFloat64(b[1:], num)
	buf.Write(b[:])
}

// appendKey writes a 16-bit length prefixed string without a marker.
func appendKey(buf *bytes.Buffer, s string) {
	var n [2]byte
	wire.PutUint16(n[:], uint16(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
}

func appendLongString(buf *bytes.Buffer, s string) {
	var n [5]byte
	n[0] = TypeLongString
	wire.PutUint32(n[1:], uint32(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
}

// appendProperties writes sorted key/value pairs and the 00 00 09 end marker.
func appendProperties[M ~map[string]Value](buf *bytes.Buffer, props M) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		if len(k) > math.MaxUint16 {
			return fmt.Errorf("%w: property name too long", ErrInvalidData)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		appendKey(buf, k)
		if err := appendValue(buf, props[k]); err != nil {
			return err
		}
	}
	buf.Write([]byte{0x00, 0x00, TypeObjectEnd})
	return nil
}
