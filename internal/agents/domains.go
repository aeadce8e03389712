package agents

import (
	"fmt"

	"github.com/talgya/zebra-sa/internal/entropy"
)

// syntheticDomainSize is how many values each synthetic attribute domain has.
const syntheticDomainSize = 6

// Domains are the value sets of the string attributes. The noise model draws
// "plausible but wrong" observations from them.
type Domains struct {
	Drinks []string `json:"drinks" yaml:"drinks"`
	Smokes []string `json:"smokes" yaml:"smokes"`
	Pets   []string `json:"pets" yaml:"pets"`
}

// SyntheticDomains returns the d0..d5, s0..s5, p0..p5 domains used for
// generated populations.
func SyntheticDomains() Domains {
	d := Domains{
		Drinks: make([]string, syntheticDomainSize),
		Smokes: make([]string, syntheticDomainSize),
		Pets:   make([]string, syntheticDomainSize),
	}
	for i := 0; i < syntheticDomainSize; i++ {
		d.Drinks[i] = fmt.Sprintf("d%d", i)
		d.Smokes[i] = fmt.Sprintf("s%d", i)
		d.Pets[i] = fmt.Sprintf("p%d", i)
	}
	return d
}

// Values returns the domain of a string attribute, or nil for AttrHouse.
func (d Domains) Values(attr Attribute) []string {
	switch attr {
	case AttrDrink:
		return d.Drinks
	case AttrSmokes:
		return d.Smokes
	case AttrPet:
		return d.Pets
	default:
		return nil
	}
}

// otherValue draws uniformly from values until it finds one different from
// truth. Domains of size 0 or 1 cannot produce a wrong value, so truth (or the
// lone value) is returned without drawing.
func otherValue(values []string, truth string, rng *entropy.Source) string {
	if len(values) == 0 {
		return truth
	}
	if len(values) == 1 {
		return values[0]
	}
	cand := truth
	for cand == truth {
		cand = values[rng.IntN(len(values))]
	}
	return cand
}

// otherHouse draws a house id in [1, houses] different from truth.
func otherHouse(houses, truth int, rng *entropy.Source) int {
	if houses <= 1 {
		return truth
	}
	cand := truth
	for cand == truth {
		cand = rng.IntN(houses) + 1
	}
	return cand
}
