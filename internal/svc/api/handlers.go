// If you are AI: This file implements HTTP API handlers.
// All handlers read registry snapshots and never block media paths.

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
	"streamhub/internal/svc/relay"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version         string   `json:"version"`
	Uptime          int64    `json:"uptime"` // seconds
	GoVersion       string   `json:"go_version"`
	EnabledServices []string `json:"enabled_services"`
	Streams         int      `json:"streams"`
	Sessions        int      `json:"sessions"`
	RelayTasks      int      `json:"relay_tasks"`
}

// StreamInfo represents information about a stream.
type StreamInfo struct {
	App             string     `json:"app"`
	Name            string     `json:"name"`
	HasPublisher    bool       `json:"has_publisher"`
	SubscriberCount int        `json:"subscriber_count"`
	GopCount        int        `json:"gop_count"`
	Packets         uint64     `json:"packets"`
	Bytes           uint64     `json:"bytes"`
	VideoCodec      string     `json:"video_codec,omitempty"`
	AudioCodec      string     `json:"audio_codec,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
}

// StreamsResponse represents the /api/streams response.
type StreamsResponse struct {
	Streams []StreamInfo `json:"streams"`
}

// RelayResponse represents the /api/relay response.
type RelayResponse struct {
	Tasks []relay.Status `json:"tasks"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
// Returns server version, uptime, enabled services and counts.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	response := ServerResponse{
		Version:         s.info.Version,
		Uptime:          int64(timeNow().Sub(s.startTime) / time.Second),
		GoVersion:       runtime.Version(),
		EnabledServices: s.info.Services,
		Streams:         s.registry.Count(),
	}
	if s.info.Sessions != nil {
		response.Sessions = s.info.Sessions()
	}
	if s.relayMgr != nil {
		response.RelayTasks = s.relayMgr.TaskCount()
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleStreams handles GET /api/streams.
// Returns every stream entry, including ones held open only by waiting players.
func (s *Service) handleStreams(w http.ResponseWriter, r *http.Request) {
	snapshot := s.registry.Snapshot()
	streams := make([]StreamInfo, 0, len(snapshot))
	for _, info := range snapshot {
		streams = append(streams, streamInfo(info))
	}
	s.writeJSON(w, http.StatusOK, StreamsResponse{Streams: streams})
}

// handleStream handles GET /api/streams/{app}/{name}.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	key := bus.NewStreamKey(chi.URLParam(r, "app"), chi.URLParam(r, "name"))
	info, ok := s.registry.Info(key)
	if !ok {
		s.writeError(w, http.StatusNotFound, "stream not found")
		return
	}
	s.writeJSON(w, http.StatusOK, streamInfo(info))
}

func streamInfo(info bus.StreamInfo) StreamInfo {
	out := StreamInfo{
		App:             info.Key.App,
		Name:            info.Key.Name,
		HasPublisher:    info.HasPublisher,
		SubscriberCount: info.Writers,
		GopCount:        info.GopCount,
		Packets:         info.Packets,
		Bytes:           info.Bytes,
		CreatedAt:       info.CreatedAt,
	}
	if info.VideoCodec != bus.CodecUnknown {
		out.VideoCodec = info.VideoCodec.String()
	}
	if info.AudioCodec != bus.CodecUnknown {
		out.AudioCodec = info.AudioCodec.String()
	}
	if info.HasPublisher && !info.PublishedAt.IsZero() {
		t := info.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// handleRelay handles GET /api/relay.
// Returns configured relay tasks and their state.
func (s *Service) handleRelay(w http.ResponseWriter, r *http.Request) {
	tasks := []relay.Status{}
	if s.relayMgr != nil {
		tasks = append(tasks, s.relayMgr.Statuses()...)
	}
	s.writeJSON(w, http.StatusOK, RelayResponse{Tasks: tasks})
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
