package engine

import (
	"context"
	"log/slog"

	"github.com/talgya/zebra-sa/internal/agents"
	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/entropy"
	"github.com/talgya/zebra-sa/internal/logging"
	"github.com/talgya/zebra-sa/internal/world"
)

// Options are the per-run knobs that shape interactions and metrics.
type Options struct {
	Share    config.ShareMode
	Noise    float64
	SASample int
	Tracked  []agents.AgentID
}

// Simulation holds the complete state of one run. It is owned by a single
// goroutine; nothing in it is safe for concurrent use.
type Simulation struct {
	Ring    *world.Ring
	Agents  []*agents.Agent
	Beliefs []*agents.Belief
	Domains agents.Domains
	Source  string // Where the population came from
	Opts    Options

	Events  []Event
	Metrics []DayMetrics
	Day     int // Day currently (or last) processed

	// OnInteract, when set, is called after each visitor/host meeting.
	OnInteract func(visitor, host *agents.Agent)

	rng         *entropy.Source
	lastEventID int

	// homeCount[h] is how many stationary agents are in their own house h.
	homeCount []int

	arrived      []agents.AgentID // Successful arrivals today, in order
	arrivedToday []bool
	meetings     int
}

// NewSimulation wires a population onto a ring. Beliefs start with each
// agent's own facts.
func NewSimulation(ring *world.Ring, pop *agents.Population, opts Options, rng *entropy.Source) *Simulation {
	s := &Simulation{
		Ring:         ring,
		Agents:       pop.Agents,
		Beliefs:      agents.InitBeliefs(pop.Agents),
		Domains:      pop.Domains,
		Source:       pop.Source,
		Opts:         opts,
		rng:          rng,
		homeCount:    make([]int, ring.Houses+1),
		arrivedToday: make([]bool, len(pop.Agents)),
	}
	for _, a := range s.Agents {
		if a.AtHome() {
			s.homeCount[a.House]++
		}
	}
	return s
}

// TickDay runs the six phases of one day in their fixed order.
func (s *Simulation) TickDay(day int) {
	s.Day = day
	s.resetDay()

	s.finishTrips()
	hosts := s.hostsByHouse()
	for _, id := range s.arrived {
		s.interact(id, hosts)
	}
	s.scheduleReturns()
	s.startNewTrips()
	s.recordMetrics()

	m := s.Metrics[len(s.Metrics)-1]
	slog.Log(context.Background(), logging.LevelTrace, "day complete",
		"day", day,
		"arrivals", len(s.arrived),
		"meetings", s.meetings,
		"avg_sa_any", m.AvgSAAny,
	)
}

// TickWeek logs weekly progress.
func (s *Simulation) TickWeek(day int) {
	traveling := 0
	for _, a := range s.Agents {
		if a.Traveling() {
			traveling++
		}
	}
	m := s.Metrics[len(s.Metrics)-1]
	slog.Debug("weekly summary",
		"day", day,
		"events", len(s.Events),
		"traveling", traveling,
		"avg_sa_any", m.AvgSAAny,
		"avg_sa_m1", m.AvgSAM1,
	)
}

// RunDays advances the simulation n days through an Engine.
func (s *Simulation) RunDays(n int) {
	eng := NewEngine()
	eng.Day = s.Day
	eng.OnDay = s.TickDay
	eng.OnWeek = s.TickWeek
	eng.RunDays(n)
}

func (s *Simulation) resetDay() {
	for _, id := range s.arrived {
		s.arrivedToday[id] = false
	}
	s.arrived = s.arrived[:0]
	s.meetings = 0
}

// mutate applies fn to a and keeps homeCount in step with it.
func (s *Simulation) mutate(a *agents.Agent, fn func()) {
	if a.AtHome() {
		s.homeCount[a.House]--
	}
	fn()
	if a.AtHome() {
		s.homeCount[a.House]++
	}
}
