package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/engine"
)

var sampleEvents = []engine.Event{
	{ID: 1, Day: 1, Kind: engine.EventStartTrip, Fields: []string{"a0", "1", "6", "3"}},
	{ID: 2, Day: 4, Kind: engine.EventFinishTrip, Fields: []string{"1", "a0", "1"}},
	{ID: 3, Day: 4, Kind: engine.EventChangePet, Fields: []string{"a0", "a5", "p0", "p5", "p5", "p0"}},
}

func TestWriteEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, sampleEvents))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "eventID;day;event;a;b;c;d;e;f;g", lines[0])
	assert.Equal(t, "1;1;startTrip;a0;1;6;3;;;", lines[1])
	assert.Equal(t, "2;4;FinishTrip;1;a0;1;;;;", lines[2])
	assert.Equal(t, "3;4;changePet;a0;a5;p0;p5;p5;p0;", lines[3])

	back, err := ReadEvents(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleEvents, back); diff != "" {
		t.Fatalf("events differ (-want +got):\n%s", diff)
	}
}

func TestReadEventsCommaDelimited(t *testing.T) {
	src := "eventID,day,event,a,b,c,d,e,f,g\n5,9,startTrip,a2,3,4,1,,,\n"
	events, err := ReadEvents(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 9, events[0].Day)
	assert.Equal(t, []string{"a2", "3", "4", "1"}, events[0].Fields)
}

func TestEventsSummaryYAML(t *testing.T) {
	s := SummarizeEvents(sampleEvents)
	assert.Equal(t, 4, s.DaysMax)
	assert.Equal(t, map[string]int{"startTrip": 1, "FinishTrip": 1, "changePet": 1}, s.Counts)

	var buf bytes.Buffer
	require.NoError(t, WriteEventsSummary(&buf, s))
	want := "events_summary:\n  days_max: 4\n  counts:\n    FinishTrip: 1\n    changePet: 1\n    startTrip: 1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteMetrics(t *testing.T) {
	rows := []engine.DayMetrics{
		{Day: 1, AvgSAAny: 0.25, AvgSAM1: 1, Tracked: []engine.AgentAwareness{{SAAny: 0.5}, {SAAny: 0.125}}},
		{Day: 2, AvgSAAny: 0.5, AvgSAM1: 0.75},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, []string{"a0", "a3"}, rows))
	assert.Equal(t, "day;avg_sa_any;avg_sa_m1;a0;a3\n1;0.25;1;0.5;0.125\n2;0.5;0.75;;\n", buf.String())
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter([]byte("day;a0;a1\n1;0,5;0,25")))
	assert.Equal(t, ',', DetectDelimiter([]byte("day,a0,a1\n1,0.5,0.25")))
	assert.Equal(t, ';', DetectDelimiter([]byte("day")))
}

func TestAgentSeriesWide(t *testing.T) {
	src := "day;avg_sa_any;avg_sa_m1;a10;a2;bob\n1;0.1;1;0.5;0,25;\n2;0.2;1;0.75;0.5;0.9\n3;0.3;1;1;1;1\n"
	table, err := ReadTable(strings.NewReader(src))
	require.NoError(t, err)

	series, err := AgentSeries(table, 2, 0)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "a2", series[0].Agent)
	assert.Equal(t, "a10", series[1].Agent)
	assert.Equal(t, "bob", series[2].Agent)

	require.Len(t, series[0].Points, 2)
	assert.InDelta(t, 0.25, *series[0].Points[0].M1, 1e-12)
	assert.Nil(t, series[2].Points[0].M1)

	first, err := AgentSeries(table, 0, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Len(t, first[0].Points, 3)
}

func TestAgentSeriesLong(t *testing.T) {
	src := "day,agent,m1\n1,a1,0.5\n1,a0,0.25\n2,a1,0.75\n0,a0,0.1\n"
	table, err := ReadTable(strings.NewReader(src))
	require.NoError(t, err)
	series, err := AgentSeries(table, 0, 0)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "a0", series[0].Agent)
	assert.Len(t, series[0].Points, 1)
	assert.Len(t, series[1].Points, 2)
}

func TestAgentSeriesNeedsDay(t *testing.T) {
	table, err := ReadTable(strings.NewReader("x;y\n1;2\n"))
	require.NoError(t, err)
	_, err = AgentSeries(table, 0, 0)
	assert.Error(t, err)
}

func TestAwarenessFiles(t *testing.T) {
	assert.Equal(t, "awareness-01", AwarenessStem("a0"))
	assert.Equal(t, "awareness-12", AwarenessStem("a11"))
	assert.Equal(t, "awareness-00", AwarenessStem("Norwegian"))

	v := 1.0 / 3
	points := []Point{{Day: 1, M1: &v}, {Day: 2}}

	var csvBuf bytes.Buffer
	require.NoError(t, WriteAwarenessCSV(&csvBuf, points))
	assert.Equal(t, "day;m1\n1;0.333333\n2;\n", csvBuf.String())

	var yamlBuf bytes.Buffer
	require.NoError(t, WriteAwarenessYAML(&yamlBuf, "a0", points))
	var doc struct {
		Agent  string  `yaml:"agent"`
		Series []Point `yaml:"series"`
	}
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &doc))
	assert.Equal(t, "a0", doc.Agent)
	require.Len(t, doc.Series, 2)
	require.NotNil(t, doc.Series[0].M1)
	assert.Equal(t, 0.333333, *doc.Series[0].M1)
	assert.Nil(t, doc.Series[1].M1)
	assert.Contains(t, yamlBuf.String(), "m1: null")

	dir := t.TempDir()
	paths, err := ExportAwareness(dir, []Series{{Agent: "a0", Points: points}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "awareness-01.csv"), filepath.Join(dir, "awareness-01.yaml")}, paths)
}

func TestGameXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGameXML(&buf, "abc123", sampleEvents))
	out := buf.String()
	assert.Contains(t, out, `<game session="abc123">`)
	assert.Contains(t, out, `<event id="2" day="4" type="FinishTrip" a="1" b="a0" c="1"></event>`)

	sid, events, err := ReadGameXML(&buf)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sid)
	if diff := cmp.Diff(sampleEvents, events); diff != "" {
		t.Fatalf("events differ (-want +got):\n%s", diff)
	}
}

func TestWriteRun(t *testing.T) {
	cfg := config.Default()
	cfg.Days = 20
	seed := int64(3)
	cfg.Seed = &seed
	cfg.Track = []string{"a1"}
	res, err := engine.Run(cfg)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	files, err := WriteRun(dir, "feedbeef0001", res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "game_feedbeef0001.csv"), files.CSV)

	f, err := os.Open(files.Metrics)
	require.NoError(t, err)
	defer f.Close()
	table, err := ReadTable(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"day", "avg_sa_any", "avg_sa_m1", "a1"}, table.Header)
	assert.Len(t, table.Rows, 20)

	g, err := os.Open(files.CSV)
	require.NoError(t, err)
	defer g.Close()
	events, err := ReadEvents(g)
	require.NoError(t, err)
	assert.Equal(t, res.Events, events)
}
