// If you are AI: This file defines RTMP protocol constants and message types.

package rtmp

// RTMP version constant
const RTMPVersion = 3

// Handshake sizes
const (
	HandshakeC1Size     = 1536
	HandshakeC0C1Size   = 1 + HandshakeC1Size
	HandshakeS0S1S2Size = 1 + 2*HandshakeC1Size
	HandshakeC2Size     = HandshakeC1Size
)

// Default chunk size
const DefaultChunkSize = 128

// Maximum chunk size
const MaxChunkSize = 16777215 // 2^24 - 1

// MaxMessageLength bounds a reassembled message (3-byte length field).
const MaxMessageLength = 16777215

// Default window and bandwidth values announced after connect.
const (
	DefaultWindowAckSize = 2500000
	DefaultPeerBandwidth = 2500000
)

// Set Peer Bandwidth limit types
const (
	LimitHard    = 0
	LimitSoft    = 1
	LimitDynamic = 2
)

// Message type IDs
const (
	MessageTypeSetChunkSize     = 1
	MessageTypeAbortMessage     = 2
	MessageTypeAck              = 3
	MessageTypeUserCtrl         = 4
	MessageTypeWinAckSize       = 5
	MessageTypeSetPeerBandwidth = 6
	MessageTypeAudio            = 8
	MessageTypeVideo            = 9
	MessageTypeDataAMF3         = 15
	MessageTypeCommandAMF3      = 17
	MessageTypeDataAMF0         = 18
	MessageTypeSharedObjectAMF0 = 19
	MessageTypeCommandAMF0      = 20
)

// Chunk basic header format types
const (
	ChunkFmt0 = 0 // 11-byte header
	ChunkFmt1 = 1 // 7-byte header
	ChunkFmt2 = 2 // 3-byte header
	ChunkFmt3 = 3 // 0-byte header
)

// Chunk stream IDs used for outbound messages.
const (
	CSIDProtocol = 2
	CSIDCommand  = 3
	CSIDAudio    = 4
	CSIDData     = 5
	CSIDVideo    = 6
)

// Control message types
const (
	ControlStreamBegin      = 0
	ControlStreamEOF        = 1
	ControlStreamDry        = 2
	ControlSetBufferLength  = 3
	ControlStreamIsRecorded = 4
	ControlPingRequest      = 6
	ControlPingResponse     = 7
)

// NetConnection / NetStream status codes
const (
	StatusConnectSuccess  = "NetConnection.Connect.Success"
	StatusConnectRejected = "NetConnection.Connect.Rejected"
	StatusPublishStart    = "NetStream.Publish.Start"
	StatusPublishBadName  = "NetStream.Publish.BadName"
	StatusUnpublish       = "NetStream.Unpublish.Success"
	StatusPlayReset       = "NetStream.Play.Reset"
	StatusPlayStart       = "NetStream.Play.Start"
	StatusPlayNotFound    = "NetStream.Play.StreamNotFound"
	StatusPlayPublish     = "NetStream.Play.PublishNotify"
	StatusPlayUnpublish   = "NetStream.Play.UnpublishNotify"
	StatusDataStart       = "NetStream.Data.Start"
)

// Values reported in the connect _result properties.
const (
	ServerFMSVersion   = "FMS/3,0,1,123"
	ServerCapabilities = 31
)
