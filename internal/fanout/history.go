package fanout

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// HistorySink appends every published record to an in-memory slice and
// flushes it as a pretty-printed JSON array on Flush (normally called once,
// on shutdown).
type HistorySink struct {
	mu      sync.Mutex
	records []Record
	path    string
}

// NewHistorySink returns a HistorySink that writes to path on Flush.
func NewHistorySink(path string) *HistorySink {
	return &HistorySink{path: path}
}

// Name implements Sink.
func (h *HistorySink) Name() string { return "history" }

// Publish appends r to the in-memory history.
func (h *HistorySink) Publish(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Rounded())
}

// Dropped is always zero: history never drops a record.
func (h *HistorySink) Dropped() uint64 { return 0 }

// Len returns the number of records held so far.
func (h *HistorySink) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Flush writes the accumulated history to path as a pretty-printed JSON array.
func (h *HistorySink) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("fanout: create history file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.records); err != nil {
		return fmt.Errorf("fanout: write history file: %w", err)
	}
	return nil
}

// Close flushes the history file.
func (h *HistorySink) Close() error {
	return h.Flush()
}
