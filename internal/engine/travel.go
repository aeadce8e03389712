package engine

import (
	"github.com/talgya/zebra-sa/internal/agents"
	"github.com/talgya/zebra-sa/internal/world"
)

// noHost marks a house without a host in the hostsByHouse table.
const noHost agents.AgentID = -1

// finishTrips advances every active trip by a day. A trip that reaches its
// destination ends there; if nobody is home the traveler turns straight back
// toward its own house. An agent reaching its own house is its own host.
func (s *Simulation) finishTrips() {
	for _, a := range s.Agents {
		if !a.Trip.Active {
			continue
		}
		a.Trip.DaysLeft--
		if a.Trip.DaysLeft > 0 {
			continue
		}

		dest := a.Trip.To
		s.mutate(a, func() {
			a.Location = dest
			a.Trip.Active = false
		})

		hosted := s.hostPresent(dest)
		result := 0
		if hosted {
			result = 1
		}
		s.emit(EventFinishTrip, a.Trip.StartEventID, a.Name, result)

		if !hosted {
			s.startTrip(a, dest, a.House)
			continue
		}
		s.arrived = append(s.arrived, a.ID)
		s.arrivedToday[a.ID] = true
	}
}

// hostPresent reports whether some stationary agent is in its own house h.
// Travelers whose trips have not been resolved yet today do not count.
func (s *Simulation) hostPresent(h world.HouseID) bool {
	return s.homeCount[h] > 0
}

// hostsByHouse maps each house to the last stationary agent, in population
// order, that is in its own house there.
func (s *Simulation) hostsByHouse() []agents.AgentID {
	hosts := make([]agents.AgentID, s.Ring.Houses+1)
	for i := range hosts {
		hosts[i] = noHost
	}
	for _, a := range s.Agents {
		if a.AtHome() {
			hosts[a.Location] = a.ID
		}
	}
	return hosts
}

// startTrip puts a on the road from one house to another and logs it.
func (s *Simulation) startTrip(a *agents.Agent, from, to world.HouseID) {
	days := s.Ring.TravelDays(from, to)
	id := s.emit(EventStartTrip, a.Name, from, to, days)
	s.mutate(a, func() {
		a.Trip = agents.Trip{
			Active:       true,
			From:         from,
			To:           to,
			DaysLeft:     days,
			StartEventID: id,
		}
	})
}

// scheduleReturns sends today's visitors home when they ended up elsewhere.
func (s *Simulation) scheduleReturns() {
	for _, id := range s.arrived {
		a := s.Agents[id]
		if a.Trip.Active || a.Location == a.House {
			continue
		}
		s.startTrip(a, a.Location, a.House)
	}
}

// startNewTrips samples a direction for every agent resting at home that did
// not arrive today. One draw per eligible agent.
func (s *Simulation) startNewTrips() {
	for _, a := range s.Agents {
		if !a.AtHome() || s.arrivedToday[a.ID] {
			continue
		}
		var to world.HouseID
		switch a.Strategy.SampleDirection(s.rng) {
		case agents.DirLeft:
			to = s.Ring.Left(a.Location)
		case agents.DirRight:
			to = s.Ring.Right(a.Location)
		default:
			continue
		}
		s.startTrip(a, a.Location, to)
	}
}
