// Package report writes run outputs (event logs, metrics tables, XML game
// records, YAML summaries) and reads them back for post-processing.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/zebra-sa/internal/engine"
)

// Delimiter used by every table this package writes.
const Delimiter = ';'

// WriteEvents writes the event log as a ';'-delimited table with a header.
func WriteEvents(w io.Writer, events []engine.Event) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write(engine.EventHeader); err != nil {
		return fmt.Errorf("writing event header: %w", err)
	}
	for _, e := range events {
		if err := cw.Write(e.Row()); err != nil {
			return fmt.Errorf("writing event %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEvents parses an event log written by WriteEvents (or any table with
// the same columns, using ';' or ',').
func ReadEvents(r io.Reader) ([]engine.Event, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	idCol, dayCol, kindCol := t.Col("eventid"), t.Col("day"), t.Col("event")
	if idCol < 0 || dayCol < 0 || kindCol < 0 {
		return nil, fmt.Errorf("event table needs eventID, day and event columns, got %v", t.Header)
	}
	events := make([]engine.Event, 0, len(t.Rows))
	for i, row := range t.Rows {
		id, err := strconv.Atoi(cell(row, idCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: event id: %w", i+1, err)
		}
		day, err := strconv.Atoi(cell(row, dayCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: day: %w", i+1, err)
		}
		e := engine.Event{ID: id, Day: day, Kind: engine.EventKind(cell(row, kindCol))}
		if kindCol+1 < len(row) {
			e.Fields = trimEmptyTail(row[kindCol+1:])
		}
		events = append(events, e)
	}
	return events, nil
}

// EventsSummary counts events by kind.
type EventsSummary struct {
	DaysMax int            `yaml:"days_max" json:"days_max"`
	Counts  map[string]int `yaml:"counts" json:"counts"`
}

// SummarizeEvents builds a summary from a parsed event log.
func SummarizeEvents(events []engine.Event) EventsSummary {
	s := EventsSummary{Counts: make(map[string]int)}
	for _, e := range events {
		if e.Kind != "" {
			s.Counts[string(e.Kind)]++
		}
		if e.Day > s.DaysMax {
			s.DaysMax = e.Day
		}
	}
	return s
}

// WriteEventsSummary writes the summary as YAML under an events_summary key.
func WriteEventsSummary(w io.Writer, s EventsSummary) error {
	doc := struct {
		Summary EventsSummary `yaml:"events_summary"`
	}{s}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding events summary: %w", err)
	}
	return enc.Close()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func trimEmptyTail(fields []string) []string {
	end := len(fields)
	for end > 0 && strings.TrimSpace(fields[end-1]) == "" {
		end--
	}
	out := make([]string, end)
	copy(out, fields[:end])
	return out
}
