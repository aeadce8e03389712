package agents

import (
	"github.com/talgya/zebra-sa/internal/entropy"
	"github.com/talgya/zebra-sa/internal/world"
)

// Belief is what one agent thinks it knows about the others, keyed by the
// subject's AgentID. Entries are only ever added or overwritten, never
// removed, so the number of known facts can only grow.
type Belief struct {
	Houses map[AgentID]world.HouseID `json:"houses"`
	Drinks map[AgentID]string        `json:"drinks"`
	Smokes map[AgentID]string        `json:"smokes"`
	Pets   map[AgentID]string        `json:"pets"`
}

// NewBelief returns a belief seeded with the agent's own four attributes.
func NewBelief(a *Agent) *Belief {
	b := &Belief{
		Houses: make(map[AgentID]world.HouseID),
		Drinks: make(map[AgentID]string),
		Smokes: make(map[AgentID]string),
		Pets:   make(map[AgentID]string),
	}
	b.Houses[a.ID] = a.House
	b.Drinks[a.ID] = a.Drink
	b.Smokes[a.ID] = a.Smokes
	b.Pets[a.ID] = a.Pet
	return b
}

// InitBeliefs creates one self-seeded belief per agent, in population order.
func InitBeliefs(population []*Agent) []*Belief {
	beliefs := make([]*Belief, len(population))
	for i, a := range population {
		beliefs[i] = NewBelief(a)
	}
	return beliefs
}

// LearnDirect records what the believer observes about subject. Each of the
// four attributes is corrupted independently with probability noise, in the
// order house, drink, smokes, pet. A corrupted value is a uniform pick from
// the domain (or from the houses) that differs from the truth. No draws are
// made when noise is zero.
func (b *Belief) LearnDirect(subject *Agent, houses int, d Domains, noise float64, rng *entropy.Source) {
	house := int(subject.House)
	drink := subject.Drink
	smokes := subject.Smokes
	pet := subject.Pet

	if noise > 0 && rng.Float() < noise {
		house = otherHouse(houses, house, rng)
	}
	for _, f := range []struct {
		attr Attribute
		val  *string
	}{{AttrDrink, &drink}, {AttrSmokes, &smokes}, {AttrPet, &pet}} {
		if noise > 0 && rng.Float() < noise {
			*f.val = otherValue(d.Values(f.attr), *f.val, rng)
		}
	}

	b.Houses[subject.ID] = world.HouseID(house)
	b.Drinks[subject.ID] = drink
	b.Smokes[subject.ID] = smokes
	b.Pets[subject.ID] = pet
}

// Merge copies every entry of src into b. On key collisions src wins.
func (b *Belief) Merge(src *Belief) {
	for k, v := range src.Houses {
		b.Houses[k] = v
	}
	for k, v := range src.Drinks {
		b.Drinks[k] = v
	}
	for k, v := range src.Smokes {
		b.Smokes[k] = v
	}
	for k, v := range src.Pets {
		b.Pets[k] = v
	}
}

// Known returns the total number of recorded facts.
func (b *Belief) Known() int {
	return len(b.Houses) + len(b.Drinks) + len(b.Smokes) + len(b.Pets)
}

// Correct counts recorded facts that match the population's current truth.
// Entries about agents outside the population are not counted.
func (b *Belief) Correct(population []*Agent) int {
	ok := 0
	for id, v := range b.Houses {
		if a := lookup(population, id); a != nil && a.House == v {
			ok++
		}
	}
	for id, v := range b.Drinks {
		if a := lookup(population, id); a != nil && a.Drink == v {
			ok++
		}
	}
	for id, v := range b.Smokes {
		if a := lookup(population, id); a != nil && a.Smokes == v {
			ok++
		}
	}
	for id, v := range b.Pets {
		if a := lookup(population, id); a != nil && a.Pet == v {
			ok++
		}
	}
	return ok
}

// Subjects returns the set of agents the belief holds at least one fact about.
func (b *Belief) Subjects() map[AgentID]bool {
	out := make(map[AgentID]bool, len(b.Houses))
	for id := range b.Houses {
		out[id] = true
	}
	for id := range b.Drinks {
		out[id] = true
	}
	for id := range b.Smokes {
		out[id] = true
	}
	for id := range b.Pets {
		out[id] = true
	}
	return out
}

func lookup(population []*Agent, id AgentID) *Agent {
	if id < 0 || int(id) >= len(population) {
		return nil
	}
	return population[id]
}
