// If you are AI: This file implements the FLV recorder, an out-of-band registry sink.
// One file per publish: opened on publish, closed on unpublish; run behind bus.AsyncSink so disk I/O stays off the registry lock.

package record

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// timeNow stamps recording file names.
var timeNow = time.Now

// recording is one open FLV file.
type recording struct {
	path  string
	file  *os.File
	w     *bufio.Writer
	muxer flv.Muxer
	tags  int
}

// Recorder writes every published stream to dir/app/name-<time>.flv.
// It implements bus.Sink and bus.PublishListener.
type Recorder struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	files map[bus.StreamKey]*recording
}

// New creates a recorder writing under dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	return &Recorder{
		dir:    dir,
		logger: logger.With("component", "record"),
		files:  make(map[bus.StreamKey]*recording),
	}, nil
}

// fileName flattens the stream name and appends a timestamp.
func fileName(name string, t time.Time) string {
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	return name + "-" + t.UTC().Format("20060102-150405") + ".flv"
}

// OnPublish opens a new file for app/name, closing any file left from a previous publish.
func (r *Recorder) OnPublish(app, name string) {
	key := bus.NewStreamKey(app, name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.files[key]; ok {
		r.closeRecording(key, old)
	}
	rec, err := r.open(key)
	if err != nil {
		r.logger.Error("failed to start recording", "stream", key.String(), "error", err)
		return
	}
	r.files[key] = rec
	r.logger.Info("recording started", "stream", key.String(), "path", rec.path)
}

// open creates the file and writes the FLV header.
func (r *Recorder) open(key bus.StreamKey) (*recording, error) {
	dir := filepath.Join(r.dir, key.App)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fileName(key.Name, timeNow()))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	rec := &recording{path: path, file: f, w: bufio.NewWriterSize(f, 64*1024)}
	if _, err := rec.w.Write(flv.Header{HasAudio: true, HasVideo: true}.StreamStart()); err != nil {
		f.Close()
		return nil, err
	}
	return rec, nil
}

// OnUnpublish closes the file for app/name.
func (r *Recorder) OnUnpublish(app, name string) {
	key := bus.NewStreamKey(app, name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.files[key]; ok {
		r.closeRecording(key, rec)
	}
}

// OutputPacket appends pkt to its stream's file. Packets of streams not being recorded are ignored.
func (r *Recorder) OutputPacket(pkt *bus.MediaPacket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.files[pkt.StreamKey]
	if !ok {
		return nil
	}
	tag := rec.muxer.Tag(pkt)
	if tag == nil {
		return nil
	}
	if _, err := rec.w.Write(tag); err != nil {
		r.closeRecording(pkt.StreamKey, rec)
		return fmt.Errorf("write %s: %w", rec.path, err)
	}
	rec.tags++
	return nil
}

// closeRecording flushes and closes rec. Caller holds r.mu.
func (r *Recorder) closeRecording(key bus.StreamKey, rec *recording) {
	delete(r.files, key)
	err := rec.w.Flush()
	if cerr := rec.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		r.logger.Error("failed to finish recording", "stream", key.String(), "path", rec.path, "error", err)
		return
	}
	r.logger.Info("recording finished", "stream", key.String(), "path", rec.path, "tags", rec.tags)
}

// Active returns the paths of open recordings.
func (r *Recorder) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.files))
	for _, rec := range r.files {
		paths = append(paths, rec.path)
	}
	return paths
}

// Close finishes every open recording.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, rec := range r.files {
		r.closeRecording(key, rec)
	}
}
