package engine

import (
	"github.com/talgya/zebra-sa/internal/agents"
)

// AgentAwareness is one tracked agent's awareness on one day.
type AgentAwareness struct {
	SAAny float64 `json:"sa_any"`
	SAM1  float64 `json:"sa_m1_true"`
}

// DayMetrics is one row of the metrics table.
type DayMetrics struct {
	Day      int              `json:"day"`
	AvgSAAny float64          `json:"avg_sa_any"`
	AvgSAM1  float64          `json:"avg_sa_m1"`
	Meetings int              `json:"meetings"`
	Tracked  []AgentAwareness `json:"tracked,omitempty"` // In Options.Tracked order
}

// SAAny is the share of all 4N facts the belief holds, right or wrong.
func SAAny(b *agents.Belief, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(b.Known()) / float64(agents.NumAttributes*n)
}

// SAM1True is the share of held facts that match the current truth.
func SAM1True(b *agents.Belief, population []*agents.Agent) float64 {
	known := b.Known()
	if known == 0 {
		return 0
	}
	return float64(b.Correct(population)) / float64(known)
}

// recordMetrics appends today's row. sa_any is averaged over everyone;
// sa_m1_true over a fresh random sample when SASample is below the population.
func (s *Simulation) recordMetrics() {
	n := len(s.Agents)
	row := DayMetrics{Day: s.Day, Meetings: s.meetings}
	if n == 0 {
		s.Metrics = append(s.Metrics, row)
		return
	}

	total := 0.0
	for _, b := range s.Beliefs {
		total += SAAny(b, n)
	}
	row.AvgSAAny = total / float64(n)

	var sample []int
	if k := s.Opts.SASample; k > 0 && k < n {
		sample = s.rng.Sample(n, k)
	} else {
		sample = make([]int, n)
		for i := range sample {
			sample[i] = i
		}
	}
	m1 := 0.0
	for _, i := range sample {
		m1 += SAM1True(s.Beliefs[i], s.Agents)
	}
	row.AvgSAM1 = m1 / float64(len(sample))

	if len(s.Opts.Tracked) > 0 {
		row.Tracked = make([]AgentAwareness, len(s.Opts.Tracked))
		for i, id := range s.Opts.Tracked {
			row.Tracked[i] = AgentAwareness{
				SAAny: SAAny(s.Beliefs[id], n),
				SAM1:  SAM1True(s.Beliefs[id], s.Agents),
			}
		}
	}
	s.Metrics = append(s.Metrics, row)
}
