package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/talgya/zebra-sa/internal/engine"
)

// MetricsHeader is the fixed part of the metrics table header.
var MetricsHeader = []string{"day", "avg_sa_any", "avg_sa_m1"}

// WriteMetrics writes one row per day: the averaged metrics followed by the
// sa_any of each tracked agent, in tracked order.
func WriteMetrics(w io.Writer, tracked []string, rows []engine.DayMetrics) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	header := append(append([]string{}, MetricsHeader...), tracked...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing metrics header: %w", err)
	}
	for _, m := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(m.Day), formatFloat(m.AvgSAAny), formatFloat(m.AvgSAM1))
		for i := range tracked {
			if i < len(m.Tracked) {
				rec = append(rec, formatFloat(m.Tracked[i].SAAny))
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing metrics day %d: %w", m.Day, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Point is one day of an agent's awareness series. M1 is nil when the cell
// was empty or unparsable.
type Point struct {
	Day int      `yaml:"day" json:"day"`
	M1  *float64 `yaml:"m1" json:"m1"`
}

// Series is a named per-agent awareness series.
type Series struct {
	Agent  string
	Points []Point
}

// aggregateCols are metrics columns that do not belong to one agent.
var aggregateCols = map[string]bool{"avg_sa_any": true, "avg_sa_m1": true, "meetings": true}

var agentNamePattern = regexp.MustCompile(`^a(\d+)$`)

// AgentSeries extracts per-agent series from a metrics table, keeping days in
// [1, maxDay] (maxDay <= 0 keeps all). Both layouts are understood: a wide
// table with one column per agent, and a long table with an agent (or player,
// or name) column plus an m1 (or sa) column. Series are ordered by agent
// number for a<N> names, then by name; onlyFirst > 0 keeps that many.
func AgentSeries(t *Table, maxDay, onlyFirst int) ([]Series, error) {
	dayCol := t.Col("day")
	if dayCol < 0 {
		return nil, fmt.Errorf("no day column in %v", t.Header)
	}

	agentCol := firstCol(t, "agent", "player", "name")
	valueCol := firstCol(t, "m1", "sa")
	byAgent := make(map[string][]Point)
	var names []string

	if agentCol >= 0 && valueCol >= 0 {
		for _, row := range t.Rows {
			day, ok := keepDay(cell(row, dayCol), maxDay)
			if !ok {
				continue
			}
			agent := cell(row, agentCol)
			if agent == "" {
				continue
			}
			if _, seen := byAgent[agent]; !seen {
				names = append(names, agent)
			}
			byAgent[agent] = append(byAgent[agent], Point{Day: day, M1: parseFloat(cell(row, valueCol))})
		}
	} else {
		cols := make(map[string]int)
		for i, h := range t.Header {
			name := strings.TrimSpace(h)
			if i == dayCol || aggregateCols[strings.ToLower(name)] {
				continue
			}
			cols[name] = i
			names = append(names, name)
			byAgent[name] = []Point{}
		}
		for _, row := range t.Rows {
			day, ok := keepDay(cell(row, dayCol), maxDay)
			if !ok {
				continue
			}
			for _, name := range names {
				byAgent[name] = append(byAgent[name], Point{Day: day, M1: parseFloat(cell(row, cols[name]))})
			}
		}
	}

	sortAgentNames(names)
	if onlyFirst > 0 && len(names) > onlyFirst {
		names = names[:onlyFirst]
	}
	out := make([]Series, len(names))
	for i, name := range names {
		out[i] = Series{Agent: name, Points: byAgent[name]}
	}
	return out, nil
}

func firstCol(t *Table, names ...string) int {
	for _, n := range names {
		if i := t.Col(n); i >= 0 {
			return i
		}
	}
	return -1
}

// keepDay parses a day cell, accepting "3", "3.0" and "3,0".
func keepDay(s string, maxDay int) (int, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	day := int(v)
	if day <= 0 || (maxDay > 0 && day > maxDay) {
		return 0, false
	}
	return day, true
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// sortAgentNames orders a<N> names numerically ahead of everything else.
func sortAgentNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, iok := agentNumber(names[i])
		nj, jok := agentNumber(names[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
}

func agentNumber(name string) (int, bool) {
	m := agentNamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
