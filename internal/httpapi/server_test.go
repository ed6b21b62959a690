package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/radar-pipeline/internal/track"
)

type stubStats struct {
	processed, dropped uint64
	crcFailures        uint64
	sinkDrops          map[string]uint64
}

func (s stubStats) Stats() (uint64, uint64)      { return s.processed, s.dropped }
func (s stubStats) CRCFailures() uint64          { return s.crcFailures }
func (s stubStats) SinkDrops() map[string]uint64 { return s.sinkDrops }

func TestHealthHandlerReturnsOK(t *testing.T) {
	srv := NewServer(stubStats{})
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestStatsHandlerReportsCounters(t *testing.T) {
	srv := NewServer(stubStats{processed: 42, dropped: 3})
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["frames_processed"].(float64) != 42 {
		t.Errorf("frames_processed = %v, want 42", body["frames_processed"])
	}
}

func TestStatsHandlerReportsCRCFailuresAndSinkDrops(t *testing.T) {
	srv := NewServer(stubStats{crcFailures: 2, sinkDrops: map[string]uint64{"mqtt": 5}})
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var body struct {
		CRCFailures float64            `json:"crc_failures"`
		SinkDrops   map[string]float64 `json:"sink_drops"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.CRCFailures != 2 {
		t.Errorf("crc_failures = %v, want 2", body.CRCFailures)
	}
	if body.SinkDrops["mqtt"] != 5 {
		t.Errorf("sink_drops[mqtt] = %v, want 5", body.SinkDrops["mqtt"])
	}
}

func TestTracksHandlerReflectsLastSnapshot(t *testing.T) {
	srv := NewServer(stubStats{})
	srv.SetTracks([]track.Output{
		{TrackID: 1, RangeM: 12.5, Classification: "vehicle"},
	})

	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tracks", nil))

	var body struct {
		Tracks []trackView `json:"tracks"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tracks) != 1 || body.Tracks[0].TrackID != 1 {
		t.Fatalf("unexpected tracks payload: %+v", body.Tracks)
	}
}

func TestMethodNotAllowedOnNonGet(t *testing.T) {
	srv := NewServer(stubStats{})
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}
