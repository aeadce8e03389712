package engine

import (
	"fmt"
)

// EventKind names what happened. The spellings are part of the log format.
type EventKind string

const (
	EventStartTrip   EventKind = "startTrip"
	EventFinishTrip  EventKind = "FinishTrip"
	EventChangePet   EventKind = "changePet"
	EventChangeHouse EventKind = "changeHouse"
)

// EventRowWidth is the fixed column count of an event log row.
const EventRowWidth = 10

// EventHeader is the header row of the event log.
var EventHeader = []string{"eventID", "day", "event", "a", "b", "c", "d", "e", "f", "g"}

// Event is one row of the event log. Fields holds the kind-specific
// positional values:
//
//	startTrip:   agent, from, to, days
//	FinishTrip:  start event id, agent, 1 if a host was present else 0
//	changePet:   visitor, host, visitor before, host before, visitor after, host after
//	changeHouse: same as changePet, with house ids
type Event struct {
	ID     int       `json:"id"`
	Day    int       `json:"day"`
	Kind   EventKind `json:"event"`
	Fields []string  `json:"fields"`
}

// Row renders the event padded to EventRowWidth columns.
func (e Event) Row() []string {
	row := make([]string, EventRowWidth)
	row[0] = fmt.Sprint(e.ID)
	row[1] = fmt.Sprint(e.Day)
	row[2] = string(e.Kind)
	copy(row[3:], e.Fields)
	return row
}

// Field returns the i-th kind-specific value, or "" when absent.
func (e Event) Field(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i]
}

// emit appends an event for the current day and returns its id. Ids start at
// 1 and increase by one per event.
func (s *Simulation) emit(kind EventKind, fields ...any) int {
	s.lastEventID++
	vals := make([]string, len(fields))
	for i, f := range fields {
		vals[i] = fmt.Sprint(f)
	}
	s.Events = append(s.Events, Event{
		ID:     s.lastEventID,
		Day:    s.Day,
		Kind:   kind,
		Fields: vals,
	})
	return s.lastEventID
}
