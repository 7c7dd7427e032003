// If you are AI: This file contains shared test helpers for the bus package.

package bus

import (
	"sync"
)

// recordingWriter records every packet it receives and can be made to fail.
type recordingWriter struct {
	mu   sync.Mutex
	id   string
	key  StreamKey
	got  []*MediaPacket
	fail error
}

func newRecordingWriter(id string, key StreamKey) *recordingWriter {
	return &recordingWriter{id: id, key: key}
}

func (w *recordingWriter) ID() string     { return w.id }
func (w *recordingWriter) Key() StreamKey { return w.key }

func (w *recordingWriter) OutputPacket(pkt *MediaPacket) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.got = append(w.got, pkt)
	return nil
}

func (w *recordingWriter) packets() []*MediaPacket {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*MediaPacket(nil), w.got...)
}

// recordingListener records publish notifications.
type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) OnPublish(app, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "publish "+app+"/"+name)
}

func (l *recordingListener) OnUnpublish(app, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "unpublish "+app+"/"+name)
}

func (l *recordingListener) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func videoSeqHdr(key StreamKey) *MediaPacket {
	return &MediaPacket{AVType: AVTypeVideo, Codec: CodecH264, Format: FormatFlv, IsKeyFrame: true, IsSeqHdr: true, StreamKey: key, Payload: []byte{0x17, 0x00}}
}

func audioSeqHdr(key StreamKey) *MediaPacket {
	return &MediaPacket{AVType: AVTypeAudio, Codec: CodecAAC, Format: FormatFlv, IsSeqHdr: true, StreamKey: key, Payload: []byte{0xaf, 0x00}}
}

func keyFrame(key StreamKey, dts int64) *MediaPacket {
	return &MediaPacket{AVType: AVTypeVideo, Codec: CodecH264, Format: FormatFlv, DTS: dts, PTS: dts, IsKeyFrame: true, StreamKey: key, Payload: []byte{0x17, 0x01}}
}

func interFrame(key StreamKey, dts int64) *MediaPacket {
	return &MediaPacket{AVType: AVTypeVideo, Codec: CodecH264, Format: FormatFlv, DTS: dts, PTS: dts, StreamKey: key, Payload: []byte{0x27, 0x01}}
}

func audioFrame(key StreamKey, dts int64) *MediaPacket {
	return &MediaPacket{AVType: AVTypeAudio, Codec: CodecAAC, Format: FormatFlv, DTS: dts, PTS: dts, StreamKey: key, Payload: []byte{0xaf, 0x01}}
}
