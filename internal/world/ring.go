// Package world provides the ring of houses agents live in and travel between.
// Houses are numbered 1..H; house H's right neighbor is house 1.
package world

import "fmt"

// HouseID identifies a house on the ring. Valid values are 1..Ring.Houses.
type HouseID int

// Ring holds the house topology for one run.
type Ring struct {
	Houses int `json:"houses"`
}

// NewRing creates a ring with the given number of houses.
// A ring needs at least two houses so that a neighbor differs from its origin.
func NewRing(houses int) (*Ring, error) {
	if houses < 2 {
		return nil, fmt.Errorf("ring needs at least 2 houses, got %d", houses)
	}
	return &Ring{Houses: houses}, nil
}

// Left returns the counter-clockwise neighbor of h.
func (r *Ring) Left(h HouseID) HouseID {
	return HouseID(mod(int(h)-2, r.Houses) + 1)
}

// Right returns the clockwise neighbor of h.
func (r *Ring) Right(h HouseID) HouseID {
	return HouseID(mod(int(h), r.Houses) + 1)
}

// InBounds returns true if h names a house on this ring.
func (r *Ring) InBounds(h HouseID) bool {
	return h >= 1 && int(h) <= r.Houses
}

// String returns a summary of the ring.
func (r *Ring) String() string {
	return fmt.Sprintf("Ring(houses=%d)", r.Houses)
}

// mod is the non-negative remainder of a/n.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
