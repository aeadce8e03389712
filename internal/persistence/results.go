package persistence

import (
	"fmt"
	"time"

	"github.com/talgya/zebra-sa/internal/engine"
	"github.com/talgya/zebra-sa/internal/report"
)

// AgentPoint is one day of a tracked agent's awareness.
type AgentPoint struct {
	Day   int     `db:"day" json:"day"`
	SAAny float64 `db:"sa_any" json:"sa_any"`
	SAM1  float64 `db:"sa_m1" json:"sa_m1_true"`
}

type eventRow struct {
	ID   int    `db:"id"`
	Day  int    `db:"day"`
	Kind string `db:"kind"`
	A    string `db:"a"`
	B    string `db:"b"`
	C    string `db:"c"`
	D    string `db:"d"`
	E    string `db:"e"`
	F    string `db:"f"`
	G    string `db:"g"`
}

type metricRow struct {
	Day      int     `db:"day"`
	AvgSAAny float64 `db:"avg_sa_any"`
	AvgSAM1  float64 `db:"avg_sa_m1"`
	Meetings int     `db:"meetings"`
}

// SaveRun stores a finished run's outputs and marks the session finished.
// Earlier outputs of the same session are replaced.
func (db *DB) SaveRun(id string, res *engine.Result, files report.RunFiles, finished time.Time) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.Get(&exists, "SELECT COUNT(*) FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("look up session %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	for _, table := range []string{"events", "metrics", "agent_metrics"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	evStmt, err := tx.Preparex(`INSERT INTO events
		(session_id, id, day, kind, a, b, c, d, e, f, g)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer evStmt.Close()
	for _, e := range res.Events {
		_, err := evStmt.Exec(id, e.ID, e.Day, string(e.Kind),
			e.Field(0), e.Field(1), e.Field(2), e.Field(3), e.Field(4), e.Field(5), e.Field(6))
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}

	mStmt, err := tx.Preparex(`INSERT INTO metrics
		(session_id, day, avg_sa_any, avg_sa_m1, meetings) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer mStmt.Close()
	aStmt, err := tx.Preparex(`INSERT INTO agent_metrics
		(session_id, agent, day, sa_any, sa_m1) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer aStmt.Close()
	for _, m := range res.Metrics {
		if _, err := mStmt.Exec(id, m.Day, m.AvgSAAny, m.AvgSAM1, m.Meetings); err != nil {
			return fmt.Errorf("insert metrics day %d: %w", m.Day, err)
		}
		for i, aw := range m.Tracked {
			if i >= len(res.Tracked) {
				break
			}
			if _, err := aStmt.Exec(id, res.Tracked[i], m.Day, aw.SAAny, aw.SAM1); err != nil {
				return fmt.Errorf("insert agent metrics %s day %d: %w", res.Tracked[i], m.Day, err)
			}
		}
	}

	tracked, err := marshalJSON(nonNil(res.Tracked))
	if err != nil {
		return err
	}
	_, err = tx.Exec(`UPDATE sessions SET
		status = ?, finished_at = ?, seed = ?, csv_path = ?, xml_path = ?, metrics_path = ?, tracked_json = ?
		WHERE id = ?`,
		StatusFinished, formatTime(finished), res.Seed, files.CSV, files.XML, files.Metrics, tracked, id,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}

	return tx.Commit()
}

// Metrics returns the stored daily averages of a session, by day.
func (db *DB) Metrics(id string) ([]engine.DayMetrics, error) {
	var rows []metricRow
	err := db.conn.Select(&rows,
		"SELECT day, avg_sa_any, avg_sa_m1, meetings FROM metrics WHERE session_id = ? ORDER BY day", id)
	if err != nil {
		return nil, fmt.Errorf("select metrics: %w", err)
	}
	out := make([]engine.DayMetrics, len(rows))
	for i, r := range rows {
		out[i] = engine.DayMetrics{Day: r.Day, AvgSAAny: r.AvgSAAny, AvgSAM1: r.AvgSAM1, Meetings: r.Meetings}
	}
	return out, nil
}

// AgentSeries returns one tracked agent's stored series, by day.
func (db *DB) AgentSeries(id, agent string) ([]AgentPoint, error) {
	var points []AgentPoint
	err := db.conn.Select(&points,
		"SELECT day, sa_any, sa_m1 FROM agent_metrics WHERE session_id = ? AND agent = ? ORDER BY day",
		id, agent)
	if err != nil {
		return nil, fmt.Errorf("select agent metrics: %w", err)
	}
	return points, nil
}

// Events returns up to limit stored events in id order; limit <= 0 means all.
func (db *DB) Events(id string, limit int) ([]engine.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT id, day, kind, a, b, c, d, e, f, g FROM events WHERE session_id = ? ORDER BY id LIMIT ?",
		id, limit)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	out := make([]engine.Event, len(rows))
	for i, r := range rows {
		fields := []string{r.A, r.B, r.C, r.D, r.E, r.F, r.G}
		end := len(fields)
		for end > 0 && fields[end-1] == "" {
			end--
		}
		out[i] = engine.Event{ID: r.ID, Day: r.Day, Kind: engine.EventKind(r.Kind), Fields: fields[:end]}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
