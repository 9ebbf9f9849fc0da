// Package flightlog records dispatched commands and relayed telemetry
// events in a sqlite database. Recording is best-effort: a failed
// insert logs a warning and never fails the command path.
package flightlog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS flight_events (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	at     TIMESTAMP NOT NULL,
	kind   TEXT NOT NULL,
	detail TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flight_events_at ON flight_events(at);
`

// Event is one recorded flight event.
type Event struct {
	ID     int64
	At     time.Time
	Kind   string
	Detail string
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path and ensures the schema
// exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open flight log %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping flight log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create flight log schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Record(kind, detail string) {
	if _, err := s.db.Exec(
		"INSERT INTO flight_events (at, kind, detail) VALUES (?, ?, ?)",
		time.Now().UTC(), kind, detail,
	); err != nil {
		s.logger.Warn("flight log insert failed", "kind", kind, "error", err)
	}
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		"SELECT id, at, kind, detail FROM flight_events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query flight log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.At, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan flight event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
