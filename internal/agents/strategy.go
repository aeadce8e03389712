package agents

import (
	"math"

	"github.com/talgya/zebra-sa/internal/entropy"
)

// Direction is the outcome of a daily movement decision.
type Direction uint8

const (
	DirStay Direction = iota
	DirLeft
	DirRight
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "home"
	}
}

// Strategy holds an agent's behavioral probabilities. Left, Right and Home sum
// to 1; the exchange probabilities are independent of movement. Build one with
// NormalizeStrategy so the invariants hold.
type Strategy struct {
	Left          float64 `json:"p_left"`
	Right         float64 `json:"p_right"`
	Home          float64 `json:"p_home"`
	HouseExchange float64 `json:"p_house_exch"`
	PetExchange   float64 `json:"p_pet_exch"`
}

// DefaultStrategy moves left, right or stays with equal odds and never
// exchanges anything.
func DefaultStrategy() Strategy {
	return Strategy{Left: 1.0 / 3, Right: 1.0 / 3, Home: 1.0 / 3}
}

// NormalizeStrategy turns raw probabilities into a valid Strategy. Values above
// 1 are read as percentages. Non-finite or negative values become 0 and every
// value is clamped to [0, 1]. The movement triple is rescaled to sum to 1, and
// an all-zero triple becomes equal thirds.
func NormalizeStrategy(left, right, home, houseExch, petExch float64) Strategy {
	l, r, h := prob(left), prob(right), prob(home)
	sum := l + r + h
	if sum <= 0 {
		l, r, h = 1.0/3, 1.0/3, 1.0/3
	} else {
		l, r, h = l/sum, r/sum, h/sum
	}
	return Strategy{
		Left:          l,
		Right:         r,
		Home:          h,
		HouseExchange: prob(houseExch),
		PetExchange:   prob(petExch),
	}
}

// prob coerces one raw value into [0, 1].
func prob(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 1 {
		v /= 100
	}
	if v > 1 {
		return 1
	}
	return v
}

// DirectionFor partitions [0, 1) into [0, Left), [Left, Left+Right) and the
// remainder, mapping a uniform draw x to left, right or stay.
func (s Strategy) DirectionFor(x float64) Direction {
	if x < s.Left {
		return DirLeft
	}
	if x < s.Left+s.Right {
		return DirRight
	}
	return DirStay
}

// SampleDirection draws one uniform value and maps it through DirectionFor.
func (s Strategy) SampleDirection(rng *entropy.Source) Direction {
	return s.DirectionFor(rng.Float())
}
