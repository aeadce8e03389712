package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/report"
)

// Session statuses.
const (
	StatusCreated  = "created"
	StatusFinished = "finished"
)

// Session is a stored run request and, once finished, where its outputs went.
type Session struct {
	ID         string          `json:"session_id"`
	Config     config.Run      `json:"config"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Seed       *int64          `json:"seed,omitempty"` // Seed actually used
	Files      report.RunFiles `json:"files"`
	Tracked    []string        `json:"tracked"`
}

// Finished reports whether the session's run has been stored.
func (s *Session) Finished() bool {
	return s.Status == StatusFinished
}

type sessionRow struct {
	ID          string         `db:"id"`
	ConfigJSON  string         `db:"config_json"`
	Status      string         `db:"status"`
	CreatedAt   string         `db:"created_at"`
	FinishedAt  sql.NullString `db:"finished_at"`
	Seed        sql.NullInt64  `db:"seed"`
	CSVPath     string         `db:"csv_path"`
	XMLPath     string         `db:"xml_path"`
	MetricsPath string         `db:"metrics_path"`
	TrackedJSON string         `db:"tracked_json"`
}

// CreateSession stores a new session with its configuration.
func (db *DB) CreateSession(id string, cfg config.Run, now time.Time) error {
	cfgJSON, err := marshalJSON(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO sessions (id, config_json, status, created_at) VALUES (?, ?, ?, ?)",
		id, cfgJSON, StatusCreated, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", id, err)
	}
	return nil
}

// GetSession loads one session.
func (db *DB) GetSession(id string) (*Session, error) {
	var row sessionRow
	err := db.conn.Get(&row, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return row.session()
}

// ListSessions returns the most recently created sessions first.
func (db *DB) ListSessions(limit int) ([]*Session, error) {
	var rows []sessionRow
	err := db.conn.Select(&rows, "SELECT * FROM sessions ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]*Session, 0, len(rows))
	for _, r := range rows {
		s, err := r.session()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r sessionRow) session() (*Session, error) {
	s := &Session{
		ID:     r.ID,
		Status: r.Status,
		Files: report.RunFiles{
			CSV:     r.CSVPath,
			XML:     r.XMLPath,
			Metrics: r.MetricsPath,
		},
	}
	if err := json.Unmarshal([]byte(r.ConfigJSON), &s.Config); err != nil {
		return nil, fmt.Errorf("session %s: decode config: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TrackedJSON), &s.Tracked); err != nil {
		return nil, fmt.Errorf("session %s: decode tracked: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("session %s: created_at: %w", r.ID, err)
	}
	s.CreatedAt = created
	if s.FinishedAt, err = nullTime(r.FinishedAt); err != nil {
		return nil, fmt.Errorf("session %s: finished_at: %w", r.ID, err)
	}
	if r.Seed.Valid {
		seed := r.Seed.Int64
		s.Seed = &seed
	}
	return s, nil
}
