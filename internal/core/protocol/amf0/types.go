// If you are AI: This file defines AMF0 type markers and the Go types that represent decoded values.
// A Value is one of: float64, bool, string, LongString, nil (null), Undefined, Object, ECMAArray, Array, Date.

package amf0

import "errors"

// AMF0 type markers
const (
	TypeNumber      = 0x00
	TypeBoolean     = 0x01
	TypeString      = 0x02
	TypeObject      = 0x03
	TypeMovieClip   = 0x04
	TypeNull        = 0x05
	TypeUndefined   = 0x06
	TypeReference   = 0x07
	TypeECMAArray   = 0x08
	TypeObjectEnd   = 0x09
	TypeStrictArray = 0x0A
	TypeDate        = 0x0B
	TypeLongString  = 0x0C
	TypeUnsupported = 0x0D
	TypeRecordSet   = 0x0E
	TypeXMLDocument = 0x0F
	TypeTypedObject = 0x10
	TypeAVMPlus     = 0x11
)

var (
	ErrUnknownMarker   = errors.New("amf0: unknown type marker")
	ErrTruncated       = errors.New("amf0: truncated input")
	ErrUnsupportedType = errors.New("amf0: unsupported type")
	ErrInvalidData     = errors.New("amf0: invalid data")
	ErrUnexpectedType  = errors.New("amf0: unexpected type")
)

// Value represents a decoded AMF0 value.
type Value interface{}

// Object represents an AMF0 anonymous object (key-value pairs).
type Object map[string]Value

// ECMAArray represents an AMF0 associative array. It is encoded with a count prefix.
type ECMAArray map[string]Value

// Array represents an AMF0 strict array.
type Array []Value

// Undefined is the AMF0 undefined value, distinct from null (nil).
type Undefined struct{}

// LongString is a string encoded with a 32-bit length.
type LongString string

// Date is an AMF0 date: milliseconds since the Unix epoch and a timezone offset in minutes.
type Date struct {
	Millis float64
	TZ     int16
}

// GetString returns the string stored under key, accepting long strings.
func (o Object) GetString(key string) (string, bool) {
	return asString(o[key])
}

// GetNumber returns the number stored under key.
func (o Object) GetNumber(key string) (float64, bool) {
	n, ok := o[key].(float64)
	return n, ok
}

func asString(v Value) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case LongString:
		return string(s), true
	}
	return "", false
}

// AsString reports whether v is a string or long string and returns it.
func AsString(v Value) (string, bool) {
	return asString(v)
}
