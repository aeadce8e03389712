package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/zebra-sa/internal/agents"
	"github.com/talgya/zebra-sa/internal/config"
	"github.com/talgya/zebra-sa/internal/entropy"
	"github.com/talgya/zebra-sa/internal/world"
)

// Result is everything a finished run produces.
type Result struct {
	Seed    int64          `json:"seed"`
	Houses  int            `json:"houses"`
	Days    int            `json:"days"`
	Source  string         `json:"source"` // "instance" or "synthetic"
	Names   []string       `json:"names"`
	Tracked []string       `json:"tracked,omitempty"`
	Domains agents.Domains `json:"domains"`
	Events  []Event        `json:"events"`
	Metrics []DayMetrics   `json:"metrics"`
	Final   []agents.Agent `json:"final"` // Agent state after the last day
}

// ResolveSeed returns the explicit seed, or one derived from the session id.
func ResolveSeed(cfg config.Run) int64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	return entropy.SeedFromSession(cfg.SessionID)
}

// Build validates cfg and prepares a simulation positioned before day 1.
// Nothing is built when the configuration is invalid.
func Build(cfg config.Run) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ring, err := world.NewRing(cfg.Houses)
	if err != nil {
		return nil, fmt.Errorf("building ring: %w", err)
	}

	pop := agents.Spawn(agents.SpawnConfig{
		Agents:       cfg.Agents,
		Houses:       cfg.Houses,
		InstancePath: cfg.InitPath,
		StrategyPath: cfg.StrategyPath,
	})
	if o := cfg.Override; o != nil {
		st := agents.NormalizeStrategy(o.Strategy.Left, o.Strategy.Right, o.Strategy.Home,
			o.Strategy.HouseExch, o.Strategy.PetExch)
		if pop.Override(o.Who, st) {
			slog.Debug("strategy override applied", "who", o.Who, "strategy", st)
		} else {
			slog.Warn("strategy override ignored: unknown agent", "who", o.Who)
		}
	}

	opts := Options{
		Share:    cfg.Share,
		Noise:    cfg.Noise,
		SASample: cfg.SASample,
		Tracked:  trackedIDs(pop, cfg),
	}
	seed := ResolveSeed(cfg)
	return NewSimulation(ring, pop, opts, entropy.NewSource(seed)), nil
}

// Run executes a whole run and returns its outputs. Identical configurations
// produce identical results.
func Run(cfg config.Run) (*Result, error) {
	sim, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	sim.RunDays(cfg.Days)
	res := sim.Result()
	slog.Debug("run finished",
		"seed", res.Seed,
		"agents", len(res.Names),
		"days", res.Days,
		"events", len(res.Events),
	)
	return res, nil
}

// Result snapshots the simulation's outputs.
func (s *Simulation) Result() *Result {
	res := &Result{
		Seed:    s.rng.Seed(),
		Houses:  s.Ring.Houses,
		Days:    s.Day,
		Source:  s.Source,
		Names:   make([]string, len(s.Agents)),
		Domains: s.Domains,
		Events:  s.Events,
		Metrics: s.Metrics,
		Final:   make([]agents.Agent, len(s.Agents)),
	}
	for i, a := range s.Agents {
		res.Names[i] = a.Name
		res.Final[i] = *a
	}
	for _, id := range s.Opts.Tracked {
		res.Tracked = append(res.Tracked, s.Agents[id].Name)
	}
	return res
}

// trackedIDs resolves the agents whose individual series are recorded.
// Unknown and repeated names are skipped.
func trackedIDs(pop *agents.Population, cfg config.Run) []agents.AgentID {
	if cfg.TrackAll {
		ids := make([]agents.AgentID, len(pop.Agents))
		for i, a := range pop.Agents {
			ids[i] = a.ID
		}
		return ids
	}
	var ids []agents.AgentID
	seen := make(map[agents.AgentID]bool)
	for _, name := range cfg.Track {
		a := pop.Find(name)
		if a == nil {
			slog.Warn("cannot track unknown agent", "who", name)
			continue
		}
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		ids = append(ids, a.ID)
	}
	return ids
}
