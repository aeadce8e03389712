package tuner

import (
	"fmt"
	"math"

	"github.com/talgya/zebra-sa/internal/entropy"
)

// Strategy is a candidate in whole percentages. Left, Right and Home always
// sum to 100.
type Strategy struct {
	Left      int `json:"p_left" yaml:"p_left"`
	Right     int `json:"p_right" yaml:"p_right"`
	Home      int `json:"p_home" yaml:"p_home"`
	HouseExch int `json:"p_house_exch" yaml:"p_house_exch"`
	PetExch   int `json:"p_pet_exch" yaml:"p_pet_exch"`
}

func (s Strategy) String() string {
	return fmt.Sprintf("L%d/R%d/H%d house=%d pet=%d", s.Left, s.Right, s.Home, s.HouseExch, s.PetExch)
}

// FixSum100 clamps a movement triple to [0, 100] and rescales it to sum to
// exactly 100. An all-zero triple becomes 33/33/34.
func FixSum100(a, b, c int) (int, int, int) {
	a, b, c = clampPct(a), clampPct(b), clampPct(c)
	s := a + b + c
	if s == 0 {
		return 33, 33, 34
	}
	a = int(math.RoundToEven(float64(a) * 100 / float64(s)))
	b = int(math.RoundToEven(float64(b) * 100 / float64(s)))
	c = 100 - a - b
	if c < 0 {
		c = 0
		if a >= b {
			a = 100 - b
		} else {
			b = 100 - a
		}
	}
	return a, b, c
}

func clampPct(v int) int {
	return max(0, min(100, v))
}

// SampleStrategy draws a random candidate: the movement triple from three
// uniform weights, each exchange probability uniformly from 0..100.
func SampleStrategy(rng *entropy.Source) Strategy {
	x1, x2, x3 := rng.Float(), rng.Float(), rng.Float()
	s := x1 + x2 + x3
	if s == 0 {
		s = 1
	}
	left := int(math.RoundToEven(100 * x1 / s))
	right := int(math.RoundToEven(100 * x2 / s))
	home := 100 - left - right
	left, right, home = FixSum100(left, right, home)
	return Strategy{
		Left:      left,
		Right:     right,
		Home:      home,
		HouseExch: rng.IntN(101),
		PetExch:   rng.IntN(101),
	}
}
