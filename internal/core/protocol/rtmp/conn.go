// If you are AI: This file manages an RTMP connection after the handshake.
// Conn reads chunks, applies protocol control messages inline, tracks acknowledgements and serializes writes.

package rtmp

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// readBufferSize is the socket read size.
const readBufferSize = 64 * 1024

// Conn is a chunk-level RTMP connection.
// ReadMessage must be called from a single goroutine; writes may come from any goroutine.
type Conn struct {
	rw     io.ReadWriter
	reader *ChunkReader
	writer *ChunkWriter
	rbuf   []byte

	wmu  sync.Mutex
	wbuf []byte

	// ACK tracking. ackWindow is the size the peer asked us to acknowledge.
	ackWindow uint32
	inAckSize uint32 // Total bytes received from peer
	inLastAck uint32 // Last ACK value we sent

	peerBandwidth uint32
	lastRead      atomic.Int64
	closed        atomic.Bool
}

// NewConn wraps an already handshaken stream.
func NewConn(rw io.ReadWriter) *Conn {
	c := &Conn{
		rw:     rw,
		reader: NewChunkReader(),
		writer: NewChunkWriter(),
		rbuf:   make([]byte, readBufferSize),
	}
	c.lastRead.Store(time.Now().UnixNano())
	return c
}

// SetMaxChunkSize sets the largest chunk size accepted from the peer.
func (c *Conn) SetMaxChunkSize(size uint32) {
	c.reader.SetMaxChunkSize(size)
}

// ReadChunkSize returns the chunk size used for incoming chunks.
func (c *Conn) ReadChunkSize() uint32 {
	return c.reader.ChunkSize()
}

// WriteChunkSize returns the chunk size used for outgoing chunks.
func (c *Conn) WriteChunkSize() uint32 {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.writer.ChunkSize()
}

// LastActivity returns the time bytes were last received.
func (c *Conn) LastActivity() time.Time {
	return time.Unix(0, c.lastRead.Load())
}

// ReadMessage returns the next non-control message.
// Control messages (types 1-6) are applied to the connection state and not returned.
func (c *Conn) ReadMessage() (*Message, error) {
	for {
		msg, err := c.reader.Next()
		if err == nil {
			if msg.IsControl() {
				if err := c.handleControl(msg); err != nil {
					return nil, err
				}
				continue
			}
			return msg, nil
		}
		if err != ErrNeedMoreData {
			return nil, err
		}
		n, err := c.rw.Read(c.rbuf)
		if n > 0 {
			c.lastRead.Store(time.Now().UnixNano())
			c.reader.Feed(c.rbuf[:n])
			if ackErr := c.recordBytesReceived(uint32(n)); ackErr != nil {
				return nil, ackErr
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// handleControl applies a protocol control message.
func (c *Conn) handleControl(msg *Message) error {
	switch msg.TypeID {
	case MessageTypeSetChunkSize:
		size, err := ParseSetChunkSize(msg.Body)
		if err != nil {
			return err
		}
		return c.reader.SetChunkSize(size)
	case MessageTypeAbortMessage:
		csid, err := parseUint32Body("abort", msg.Body)
		if err != nil {
			return err
		}
		c.reader.Abort(csid)
	case MessageTypeAck:
		_, err := parseUint32Body("ack", msg.Body)
		return err
	case MessageTypeWinAckSize:
		size, err := parseUint32Body("window ack size", msg.Body)
		if err != nil {
			return err
		}
		c.ackWindow = size
	case MessageTypeSetPeerBandwidth:
		size, _, err := ParseSetPeerBandwidth(msg.Body)
		if err != nil {
			return err
		}
		c.peerBandwidth = size
	case MessageTypeUserCtrl:
		event, data, err := ParseUserControl(msg.Body)
		if err != nil {
			return err
		}
		if event == ControlPingRequest && len(data) >= 4 {
			value := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
			return c.WriteMessage(ControlMessage(MessageTypeUserCtrl, CreateUserControl(ControlPingResponse, value)))
		}
	}
	return nil
}

// recordBytesReceived records bytes received from the peer and sends an ACK when the window is crossed.
func (c *Conn) recordBytesReceived(bytesRead uint32) error {
	c.inAckSize += bytesRead
	// The byte counter wraps at 0xf0000000.
	if c.inAckSize >= 0xf0000000 {
		c.inAckSize = 0
		c.inLastAck = 0
	}
	if c.ackWindow > 0 && c.inAckSize-c.inLastAck >= c.ackWindow {
		if err := c.WriteMessage(ControlMessage(MessageTypeAck, CreateAck(c.inAckSize))); err != nil {
			return err
		}
		c.inLastAck = c.inAckSize
	}
	return nil
}

// WriteMessage writes one message as chunks.
func (c *Conn) WriteMessage(msg *Message) error {
	return c.WriteMessages(msg)
}

// WriteMessages writes messages with a single socket write.
func (c *Conn) WriteMessages(msgs ...*Message) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	buf := c.wbuf[:0]
	for _, msg := range msgs {
		buf = c.writer.AppendMessage(buf, msg)
	}
	_, err := c.rw.Write(buf)
	if cap(buf) <= readBufferSize {
		c.wbuf = buf
	}
	return err
}

// SetWriteChunkSize announces a new outgoing chunk size and switches to it.
func (c *Conn) SetWriteChunkSize(size uint32) error {
	if size == 0 || size > MaxChunkSize {
		return protocolErrorf("set chunk size", "chunk size %d out of range", size)
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	buf := c.writer.AppendMessage(nil, ControlMessage(MessageTypeSetChunkSize, CreateSetChunkSize(size)))
	if _, err := c.rw.Write(buf); err != nil {
		return err
	}
	return c.writer.SetChunkSize(size)
}

// SendWindowAckSize asks the peer to acknowledge every size bytes.
func (c *Conn) SendWindowAckSize(size uint32) error {
	return c.WriteMessage(ControlMessage(MessageTypeWinAckSize, CreateWindowAckSize(size)))
}

// SendPeerBandwidth limits the peer's output bandwidth.
func (c *Conn) SendPeerBandwidth(size uint32, limitType byte) error {
	return c.WriteMessage(ControlMessage(MessageTypeSetPeerBandwidth, CreateSetPeerBandwidth(size, limitType)))
}

// SendUserControl sends a user control event carrying a 4-byte value.
func (c *Conn) SendUserControl(event uint16, value uint32) error {
	return c.WriteMessage(ControlMessage(MessageTypeUserCtrl, CreateUserControl(event, value)))
}

// Close closes the underlying stream if it is closable.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
