package fanout

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type countingSink struct {
	published int
	drops     uint64
	closed    bool
}

func (c *countingSink) Name() string    { return "counting" }
func (c *countingSink) Publish(Record)  { c.published++ }
func (c *countingSink) Dropped() uint64 { return c.drops }
func (c *countingSink) Close() error    { c.closed = true; return nil }

func TestFanoutPublishesToAllSinks(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	f := New(a, b)
	defer f.Close()

	f.Publish(Record{TrackID: 1})

	deadline := time.Now().Add(time.Second)
	for (a.published == 0 || b.published == 0) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if a.published != 1 || b.published != 1 {
		t.Fatalf("published counts = %d, %d, want 1, 1", a.published, b.published)
	}
}

func TestFanoutCloseClosesAllSinks(t *testing.T) {
	a := &countingSink{}
	f := New(a)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed {
		t.Error("sink was not closed")
	}
}

func TestHistorySinkFlushWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	h := NewHistorySink(path)
	h.Publish(Record{TrackID: 1, Confidence: 0.123456})
	h.Publish(Record{TrackID: 2})

	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	if err := h.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("history file is empty")
	}
}

func TestRecordRoundedPrecision(t *testing.T) {
	r := Record{
		RangeM:      12.34567,
		LatitudeDeg: 40.123456789,
		Confidence:  0.123456,
	}.Rounded()

	if r.RangeM != 12.35 {
		t.Errorf("RangeM = %v, want 12.35", r.RangeM)
	}
	if r.LatitudeDeg != 40.123457 {
		t.Errorf("LatitudeDeg = %v, want 40.123457", r.LatitudeDeg)
	}
	if r.Confidence != 0.123 {
		t.Errorf("Confidence = %v, want 0.123", r.Confidence)
	}
}
