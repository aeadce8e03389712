package engine

import (
	"github.com/talgya/zebra-sa/internal/agents"
	"github.com/talgya/zebra-sa/internal/config"
)

// interact resolves one visitor's meeting with the host of the house it
// arrived at. Visitors with no host, or who are the host themselves, skip it.
func (s *Simulation) interact(visitorID agents.AgentID, hosts []agents.AgentID) {
	visitor := s.Agents[visitorID]
	hostID := hosts[visitor.Location]
	if hostID == noHost || hostID == visitorID {
		return
	}
	host := s.Agents[hostID]
	vb, hb := s.Beliefs[visitorID], s.Beliefs[hostID]

	vb.LearnDirect(host, s.Ring.Houses, s.Domains, s.Opts.Noise, s.rng)
	hb.LearnDirect(visitor, s.Ring.Houses, s.Domains, s.Opts.Noise, s.rng)

	if s.Opts.Share == config.ShareMeet {
		vb.Merge(hb)
		hb.Merge(vb)
	}
	s.meetings++

	if s.agree(visitor.Strategy.PetExchange, host.Strategy.PetExchange) {
		s.swapPets(visitor, host)
	}
	if s.agree(visitor.Strategy.HouseExchange, host.Strategy.HouseExchange) {
		s.swapHouses(visitor, host)
	}

	if s.OnInteract != nil {
		s.OnInteract(visitor, host)
	}
}

// agree draws the visitor's consent and, only if given, the host's.
func (s *Simulation) agree(visitorP, hostP float64) bool {
	return s.rng.Float() < visitorP && s.rng.Float() < hostP
}

// swapPets exchanges pets; each side updates its belief about its own pet.
func (s *Simulation) swapPets(visitor, host *agents.Agent) {
	vBefore, hBefore := visitor.Pet, host.Pet
	visitor.Pet, host.Pet = host.Pet, visitor.Pet

	s.Beliefs[visitor.ID].Pets[visitor.ID] = visitor.Pet
	s.Beliefs[host.ID].Pets[host.ID] = host.Pet

	s.emit(EventChangePet, visitor.Name, host.Name, vBefore, hBefore, visitor.Pet, host.Pet)
}

// swapHouses exchanges homes. The visitor is now at home; the host stays where
// it stands, which is no longer its home, and has no trip to take it there.
func (s *Simulation) swapHouses(visitor, host *agents.Agent) {
	vBefore, hBefore := visitor.House, host.House
	s.mutate(visitor, func() { visitor.House = hBefore })
	s.mutate(host, func() { host.House = vBefore })

	s.Beliefs[visitor.ID].Houses[visitor.ID] = visitor.House
	s.Beliefs[host.ID].Houses[host.ID] = host.House

	s.emit(EventChangeHouse, visitor.Name, host.Name, vBefore, hBefore, visitor.House, host.House)
}
