// Package persistence provides SQLite-based storage for sessions and the
// outputs of finished runs.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; a single connection serializes them.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		finished_at TEXT,
		seed INTEGER,
		csv_path TEXT NOT NULL DEFAULT '',
		xml_path TEXT NOT NULL DEFAULT '',
		metrics_path TEXT NOT NULL DEFAULT '',
		tracked_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS events (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		a TEXT NOT NULL DEFAULT '',
		b TEXT NOT NULL DEFAULT '',
		c TEXT NOT NULL DEFAULT '',
		d TEXT NOT NULL DEFAULT '',
		e TEXT NOT NULL DEFAULT '',
		f TEXT NOT NULL DEFAULT '',
		g TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (session_id, id)
	);

	CREATE TABLE IF NOT EXISTS metrics (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		avg_sa_any REAL NOT NULL,
		avg_sa_m1 REAL NOT NULL,
		meetings INTEGER NOT NULL,
		PRIMARY KEY (session_id, day)
	);

	CREATE TABLE IF NOT EXISTS agent_metrics (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		agent TEXT NOT NULL,
		day INTEGER NOT NULL,
		sa_any REAL NOT NULL,
		sa_m1 REAL NOT NULL,
		PRIMARY KEY (session_id, agent, day)
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(session_id, day);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// marshalJSON is json.Marshal returning a string.
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// timeLayout is fixed-width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
