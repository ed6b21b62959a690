// Package statsdb persists the pipeline's frame counters across restarts.
// It is intentionally thin: one table, one row, updated periodically by the
// controller and read back by the controller on startup so /stats doesn't
// reset to zero every time the process restarts.
package statsdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_stats (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	frames_processed INTEGER NOT NULL,
	frames_dropped INTEGER NOT NULL
);`

// DB wraps a sqlite-backed counters store.
type DB struct {
	*sql.DB
}

// Open creates (or reuses) the sqlite database at path and ensures its
// schema exists.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("statsdb: open %s: %w", path, err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("statsdb: migrate schema: %w", err)
	}
	return &DB{sqlDB}, nil
}

// Load returns the last persisted counters, or zero values if none were
// ever saved.
func (db *DB) Load() (processed, dropped uint64, err error) {
	row := db.QueryRow(`SELECT frames_processed, frames_dropped FROM pipeline_stats WHERE id = 1`)
	err = row.Scan(&processed, &dropped)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("statsdb: load counters: %w", err)
	}
	return processed, dropped, nil
}

// Save upserts the current counters into the single persisted row.
func (db *DB) Save(processed, dropped uint64) error {
	_, err := db.Exec(`
		INSERT INTO pipeline_stats (id, frames_processed, frames_dropped)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET frames_processed = excluded.frames_processed, frames_dropped = excluded.frames_dropped`,
		processed, dropped)
	if err != nil {
		return fmt.Errorf("statsdb: save counters: %w", err)
	}
	return nil
}
