// Package history keeps a small sqlite journal of service starts and stops.
// It is purely diagnostic: liveness is always derived live from the process
// table, never from the journal, and journal errors never fail an operation.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event types recorded in the journal.
const (
	EventStart = "start"
	EventStop  = "stop"
)

// Record is one journal entry.
type Record struct {
	ID         int64
	Service    string
	PID        int
	Event      string
	OccurredAt time.Time
}

// Journal persists events to a SQLite database (modernc.org/sqlite, CGO-free).
// Use ":memory:" as path for an in-memory journal.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and ensures the schema.
func Open(ctx context.Context, path string) (*Journal, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty journal path")
	}
	if p != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return nil, err
		}
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	j := &Journal{db: d}
	if err := j.ensureSchema(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS service_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service TEXT NOT NULL,
			pid INTEGER NOT NULL,
			event TEXT NOT NULL,
			occurred_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_events_service ON service_events(service);`,
	}
	for _, q := range stmts {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends one event.
func (j *Journal) Record(ctx context.Context, service string, pid int, event string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO service_events(service, pid, event, occurred_at) VALUES(?, ?, ?, ?);`,
		service, pid, event, time.Now().UTC())
	return err
}

// Recent returns up to limit most recent events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, service, pid, event, occurred_at FROM service_events ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Service, &r.PID, &r.Event, &r.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
