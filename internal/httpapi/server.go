// Package httpapi exposes a small admin surface over the running pipeline:
// liveness, the currently confirmed tracks, and frame counters.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/httputil"
	"github.com/banshee-data/radar-pipeline/internal/track"
)

// StatsSource reports the running frame counters the /stats endpoint serves.
type StatsSource interface {
	Stats() (processed, dropped uint64)
	CRCFailures() uint64
	SinkDrops() map[string]uint64
}

// Server is the admin HTTP surface. It holds no write access to the
// pipeline: every handler only reads counters and the latest snapshot.
type Server struct {
	stats     StatsSource
	startedAt time.Time

	mu       sync.RWMutex
	tracks   []track.Output
	snapshot time.Time
}

// NewServer returns a Server reading frame counters from stats. Call
// SetTracks after every pipeline Step to keep /tracks current.
func NewServer(stats StatsSource) *Server {
	return &Server{stats: stats, startedAt: time.Now()}
}

// SetTracks replaces the snapshot /tracks serves. The Controller calls this
// once per frame with the confirmed outputs from that Step.
func (s *Server) SetTracks(tracks []track.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = tracks
	s.snapshot = time.Now()
}

// ServeMux builds the admin route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/tracks", s.tracksHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

type trackView struct {
	TrackID           uint64  `json:"track_id"`
	RangeM            float64 `json:"range"`
	AzimuthDeg        float64 `json:"azimuth_angle"`
	SpeedMS           float64 `json:"speed"`
	Direction         string  `json:"direction"`
	Classification    string  `json:"classification"`
	Confidence        float64 `json:"confidence"`
	Age               int     `json:"age"`
	ConsecutiveMisses int     `json:"consecutive_misses"`
}

func (s *Server) tracksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	s.mu.RLock()
	tracks := s.tracks
	asOf := s.snapshot
	s.mu.RUnlock()

	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, trackView{
			TrackID:           t.TrackID,
			RangeM:            t.RangeM,
			AzimuthDeg:        t.AzimuthDeg,
			SpeedMS:           t.SpeedMS,
			Direction:         t.Direction,
			Classification:    string(t.Classification),
			Confidence:        t.Confidence,
			Age:               t.Age,
			ConsecutiveMisses: t.ConsecutiveMisses,
		})
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"as_of":  asOf,
		"tracks": views,
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	processed, dropped := s.stats.Stats()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"frames_processed": processed,
		"frames_dropped":   dropped,
		"crc_failures":     s.stats.CRCFailures(),
		"sink_drops":       s.stats.SinkDrops(),
		"uptime_seconds":   time.Since(s.startedAt).Seconds(),
	})
}
