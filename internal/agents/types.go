// Package agents provides the agent data model, movement strategies, belief
// stores, and population building.
package agents

import (
	"github.com/talgya/zebra-sa/internal/world"
)

// AgentID is an agent's index in the population. Beliefs are keyed by it.
type AgentID int

// Attribute names one of the four facts every agent carries.
type Attribute uint8

const (
	AttrHouse Attribute = iota
	AttrDrink
	AttrSmokes
	AttrPet
)

// NumAttributes is the number of facts known about each agent.
const NumAttributes = 4

// String returns the attribute name as used in logs.
func (a Attribute) String() string {
	switch a {
	case AttrHouse:
		return "house"
	case AttrDrink:
		return "drink"
	case AttrSmokes:
		return "smokes"
	case AttrPet:
		return "pet"
	default:
		return "unknown"
	}
}

// Agent is one inhabitant of the ring.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	// Location
	House    world.HouseID `json:"house"`    // Home; may change through a house exchange
	Location world.HouseID `json:"location"` // Where the agent is (destination once a trip ends)

	// Puzzle attributes
	Drink  string `json:"drink"`
	Smokes string `json:"smokes"`
	Pet    string `json:"pet"` // May change through a pet exchange

	Strategy Strategy `json:"strategy"`
	Trip     Trip     `json:"trip"`
}

// AtHome returns true if the agent is stationary in its own house.
func (a *Agent) AtHome() bool {
	return !a.Trip.Active && a.Location == a.House
}

// Traveling returns true while a trip is in progress.
func (a *Agent) Traveling() bool {
	return a.Trip.Active
}

// Trip is an agent's in-progress relocation. An agent has exactly one Trip
// value, so at most one trip can be active at a time.
type Trip struct {
	Active       bool          `json:"active"`
	From         world.HouseID `json:"from"`
	To           world.HouseID `json:"to"`
	DaysLeft     int           `json:"days_left"`
	StartEventID int           `json:"start_event_id"` // Event that started the trip
}
