// Population building: either the fixed puzzle instance or a synthetic
// population of any size.
package agents

import (
	"fmt"
	"log/slog"

	"github.com/talgya/zebra-sa/internal/world"
)

// SpawnConfig controls population generation.
type SpawnConfig struct {
	Agents int
	Houses int

	// Fixed instance files. Either may be empty; a missing or malformed
	// instance silently falls back to a synthetic population.
	InstancePath string
	StrategyPath string
}

// Population is the outcome of spawning.
type Population struct {
	Agents  []*Agent
	Domains Domains
	Houses  int
	Source  string // "instance" or "synthetic"
}

// Spawn builds the population for a run. The puzzle instance is used only when
// its size and house count match the request exactly.
func Spawn(cfg SpawnConfig) *Population {
	pop, err := spawnInstance(cfg)
	if err == nil {
		return pop
	}
	slog.Debug("using synthetic population", "reason", err)
	return spawnSynthetic(cfg)
}

func spawnInstance(cfg SpawnConfig) (*Population, error) {
	if cfg.InstancePath == "" || cfg.StrategyPath == "" {
		return nil, fmt.Errorf("no instance configured")
	}
	rows, err := ReadInstance(cfg.InstancePath)
	if err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}
	strategies, err := ReadStrategies(cfg.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("read strategies: %w", err)
	}
	if len(rows) != cfg.Agents {
		return nil, fmt.Errorf("instance has %d agents, want %d", len(rows), cfg.Agents)
	}
	houses := make(map[world.HouseID]bool)
	for _, r := range rows {
		if r.House < 1 || int(r.House) > cfg.Houses {
			return nil, fmt.Errorf("instance house %d outside 1..%d", r.House, cfg.Houses)
		}
		houses[r.House] = true
	}
	if len(houses) != cfg.Houses {
		return nil, fmt.Errorf("instance covers %d houses, want %d", len(houses), cfg.Houses)
	}

	pop := &Population{
		Agents:  make([]*Agent, 0, len(rows)),
		Domains: domainsFromRows(rows),
		Houses:  cfg.Houses,
		Source:  "instance",
	}
	for i, r := range rows {
		strat, ok := strategies[r.Name]
		if !ok {
			strat = DefaultStrategy()
		}
		pop.Agents = append(pop.Agents, &Agent{
			ID:       AgentID(i),
			Name:     r.Name,
			House:    r.House,
			Location: r.House,
			Drink:    r.Drink,
			Smokes:   r.Smokes,
			Pet:      r.Pet,
			Strategy: strat,
			Trip:     Trip{From: r.House, To: r.House},
		})
	}
	return pop, nil
}

func spawnSynthetic(cfg SpawnConfig) *Population {
	d := SyntheticDomains()
	pop := &Population{
		Agents:  make([]*Agent, 0, cfg.Agents),
		Domains: d,
		Houses:  cfg.Houses,
		Source:  "synthetic",
	}
	for i := 0; i < cfg.Agents; i++ {
		house := world.HouseID(i%cfg.Houses + 1)
		pop.Agents = append(pop.Agents, &Agent{
			ID:       AgentID(i),
			Name:     fmt.Sprintf("a%d", i),
			House:    house,
			Location: house,
			Drink:    d.Drinks[i%syntheticDomainSize],
			Smokes:   d.Smokes[i%syntheticDomainSize],
			Pet:      d.Pets[i%syntheticDomainSize],
			Strategy: DefaultStrategy(),
			Trip:     Trip{From: house, To: house},
		})
	}
	return pop
}

// Find returns the agent with the given name, or nil.
func (p *Population) Find(name string) *Agent {
	for _, a := range p.Agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Override replaces one agent's strategy. It reports whether the agent exists;
// an unknown name leaves the population untouched.
func (p *Population) Override(name string, s Strategy) bool {
	a := p.Find(name)
	if a == nil {
		return false
	}
	a.Strategy = s
	return true
}

// Names returns agent names in population order.
func (p *Population) Names() []string {
	names := make([]string, len(p.Agents))
	for i, a := range p.Agents {
		names[i] = a.Name
	}
	return names
}
