// Package entropy provides the single seeded random source a simulation run
// draws from. Every probabilistic decision in a run goes through one Source so
// that a seed reproduces the exact same sequence of draws.
package entropy

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"
)

// seedMask keeps derived seeds in the positive 31-bit range.
const seedMask = 0x7FFFFFFF

// pcgStream is the fixed second PCG word; runs are keyed by seed alone.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a deterministic pseudo-random source. It is not safe for
// concurrent use; each run owns its own Source.
type Source struct {
	rng   *rand.Rand
	seed  int64
	draws uint64
}

// NewSource creates a Source seeded with seed.
func NewSource(seed int64) *Source {
	return &Source{
		rng:  rand.New(rand.NewPCG(uint64(seed), pcgStream)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Draws returns how many values have been drawn so far.
func (s *Source) Draws() uint64 {
	return s.draws
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	s.draws++
	return s.rng.Float64()
}

// IntN returns a uniform int in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.draws++
	return s.rng.IntN(n)
}

// Sample picks k distinct indices from [0, n) without replacement using a
// partial Fisher-Yates shuffle. k is clamped to n.
func (s *Source) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// SeedFromSession derives a seed from a session identifier: the first eight
// characters read as hex, or an FNV-1a hash of the whole id when they are not
// hex. The result is always in [0, 2^31).
func SeedFromSession(id string) int64 {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	if prefix != "" {
		if v, err := strconv.ParseUint(prefix, 16, 64); err == nil {
			return int64(v & seedMask)
		}
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return int64(h.Sum32() & seedMask)
}
