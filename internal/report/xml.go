package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/talgya/zebra-sa/internal/engine"
)

type gameXML struct {
	XMLName xml.Name   `xml:"game"`
	Session string     `xml:"session,attr"`
	Events  []eventXML `xml:"event"`
}

type eventXML struct {
	ID   int    `xml:"id,attr"`
	Day  int    `xml:"day,attr"`
	Type string `xml:"type,attr"`
	A    string `xml:"a,attr,omitempty"`
	B    string `xml:"b,attr,omitempty"`
	C    string `xml:"c,attr,omitempty"`
	D    string `xml:"d,attr,omitempty"`
	E    string `xml:"e,attr,omitempty"`
	F    string `xml:"f,attr,omitempty"`
	G    string `xml:"g,attr,omitempty"`
}

// WriteGameXML writes the event log as a <game> document, one <event> element
// per row with the positional fields as attributes a through g.
func WriteGameXML(w io.Writer, sessionID string, events []engine.Event) error {
	doc := gameXML{Session: sessionID, Events: make([]eventXML, len(events))}
	for i, e := range events {
		doc.Events[i] = eventXML{
			ID:   e.ID,
			Day:  e.Day,
			Type: string(e.Kind),
			A:    e.Field(0),
			B:    e.Field(1),
			C:    e.Field(2),
			D:    e.Field(3),
			E:    e.Field(4),
			F:    e.Field(5),
			G:    e.Field(6),
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding game xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadGameXML parses a document written by WriteGameXML.
func ReadGameXML(r io.Reader) (string, []engine.Event, error) {
	var doc gameXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decoding game xml: %w", err)
	}
	events := make([]engine.Event, len(doc.Events))
	for i, e := range doc.Events {
		events[i] = engine.Event{
			ID:     e.ID,
			Day:    e.Day,
			Kind:   engine.EventKind(e.Type),
			Fields: trimEmptyTail([]string{e.A, e.B, e.C, e.D, e.E, e.F, e.G}),
		}
	}
	return doc.Session, events, nil
}
