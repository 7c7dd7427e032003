// If you are AI: This file defines the error taxonomy of the RTMP engine.
// ErrNeedMoreData is a signal to keep buffering; ProtocolError and CryptoError are fatal to a connection.

package rtmp

import (
	"errors"
	"fmt"
)

// ErrNeedMoreData reports that the buffered input does not yet hold a complete unit.
var ErrNeedMoreData = errors.New("rtmp: need more data")

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("rtmp: connection closed")

// ProtocolError reports malformed or out-of-sequence protocol input.
type ProtocolError struct {
	Op  string
	Msg string
}

// Error implements error.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rtmp %s: %s", e.Op, e.Msg)
}

// protocolErrorf builds a ProtocolError for op.
func protocolErrorf(op, format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// CryptoError reports a handshake digest or Diffie-Hellman failure.
type CryptoError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *CryptoError) Error() string {
	return fmt.Sprintf("rtmp %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CryptoError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
