// If you are AI: This file contains unit tests for the FLV recorder.

package record

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
	"streamhub/internal/logging"
)

func fixedTime(t *testing.T) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	t.Cleanup(func() { timeNow = old })
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := fileName("cam/1", ts); got != "cam_1-20260304-050607.flv" {
		t.Errorf("fileName = %q", got)
	}
	if got := fileName("../x", ts); got != "__x-20260304-050607.flv" {
		t.Errorf("fileName = %q", got)
	}
}

// Test a full publish through the registry: header, tags in order, file closed on unpublish.
func TestRecorderThroughRegistry(t *testing.T) {
	fixedTime(t)
	dir := t.TempDir()
	rec, err := New(dir, logging.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	async := bus.NewAsyncSink("record", rec, 64, logging.Discard())
	registry := bus.NewRegistry(bus.WithSink(async), bus.WithListener(async), bus.WithLogger(logging.Discard()))

	key := bus.NewStreamKey("live", "cam")
	if err := registry.AddPublisher(key, "pub"); err != nil {
		t.Fatalf("AddPublisher failed: %v", err)
	}
	seq := &bus.MediaPacket{AVType: bus.AVTypeAudio, Format: bus.FormatFlv, StreamKey: key, DTS: 1000, IsSeqHdr: true, Payload: []byte{0xAF, 0x00, 0x12, 0x10}}
	frame := &bus.MediaPacket{AVType: bus.AVTypeAudio, Format: bus.FormatFlv, StreamKey: key, DTS: 1023, Payload: []byte{0xAF, 0x01, 0x21}}
	registry.WriteMediaPacket(seq)
	registry.WriteMediaPacket(frame)
	registry.RemovePublisher(key, "pub")
	async.Close()

	if active := rec.Active(); len(active) != 0 {
		t.Errorf("Expected no open recordings, got %v", active)
	}
	data, err := os.ReadFile(filepath.Join(dir, "live", "cam-20260304-050607.flv"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var want bytes.Buffer
	want.Write(flv.Header{HasAudio: true, HasVideo: true}.StreamStart())
	want.Write(flv.NewTag(flv.TagTypeAudio, 0, seq.Payload).Bytes())
	want.Write(flv.NewTag(flv.TagTypeAudio, 0, frame.Payload).Bytes())
	if !bytes.Equal(data, want.Bytes()) {
		t.Errorf("file = %x\nwant %x", data, want.Bytes())
	}
}

// Test that packets for streams without a publish event are ignored.
func TestRecorderIgnoresUnknownStreams(t *testing.T) {
	rec, err := New(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pkt := &bus.MediaPacket{AVType: bus.AVTypeAudio, Format: bus.FormatFlv, StreamKey: bus.NewStreamKey("live", "x"), Payload: []byte{0xAF, 0x01}}
	if err := rec.OutputPacket(pkt); err != nil {
		t.Errorf("OutputPacket returned %v", err)
	}
}

// Test that a republish rotates to a new file and Close finishes open files.
func TestRecorderRepublishRotates(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, logging.Discard())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	n := 0
	old := timeNow
	timeNow = func() time.Time {
		n++
		return time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC)
	}
	defer func() { timeNow = old }()

	rec.OnPublish("live", "a")
	first := rec.Active()
	rec.OnPublish("live", "a")
	second := rec.Active()
	if len(first) != 1 || len(second) != 1 || first[0] == second[0] {
		t.Fatalf("Expected rotation, got %v then %v", first, second)
	}
	rec.Close()
	if len(rec.Active()) != 0 {
		t.Error("Expected Close to finish recordings")
	}
	entries, err := os.ReadDir(filepath.Join(dir, "live"))
	if err != nil || len(entries) != 2 {
		t.Errorf("Expected 2 files, got %d (%v)", len(entries), err)
	}
}
