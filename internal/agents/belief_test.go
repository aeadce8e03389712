package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/zebra-sa/internal/entropy"
	"github.com/talgya/zebra-sa/internal/world"
)

func testPopulation(t *testing.T, n, houses int) *Population {
	t.Helper()
	pop := Spawn(SpawnConfig{Agents: n, Houses: houses})
	require.Len(t, pop.Agents, n)
	return pop
}

func TestNewBeliefKnowsSelf(t *testing.T) {
	pop := testPopulation(t, 3, 6)
	b := NewBelief(pop.Agents[1])
	assert.Equal(t, NumAttributes, b.Known())
	assert.Equal(t, NumAttributes, b.Correct(pop.Agents))
	assert.Equal(t, map[AgentID]bool{1: true}, b.Subjects())
}

func TestLearnDirectWithoutNoiseIsExactAndDrawsNothing(t *testing.T) {
	pop := testPopulation(t, 6, 6)
	rng := entropy.NewSource(1)
	b := NewBelief(pop.Agents[0])
	b.LearnDirect(pop.Agents[4], pop.Houses, pop.Domains, 0, rng)

	assert.Equal(t, uint64(0), rng.Draws())
	assert.Equal(t, 2*NumAttributes, b.Known())
	assert.Equal(t, 2*NumAttributes, b.Correct(pop.Agents))
	assert.Equal(t, world.HouseID(5), b.Houses[4])
	assert.Equal(t, "d4", b.Drinks[4])
}

func TestLearnDirectWithFullNoiseIsAlwaysWrong(t *testing.T) {
	pop := testPopulation(t, 6, 6)
	rng := entropy.NewSource(5)
	for i := 0; i < 50; i++ {
		b := NewBelief(pop.Agents[0])
		b.LearnDirect(pop.Agents[2], pop.Houses, pop.Domains, 1, rng)
		subj := pop.Agents[2]
		require.NotEqual(t, subj.House, b.Houses[subj.ID])
		require.NotEqual(t, subj.Drink, b.Drinks[subj.ID])
		require.NotEqual(t, subj.Smokes, b.Smokes[subj.ID])
		require.NotEqual(t, subj.Pet, b.Pets[subj.ID])
		require.GreaterOrEqual(t, int(b.Houses[subj.ID]), 1)
		require.LessOrEqual(t, int(b.Houses[subj.ID]), pop.Houses)
		require.Contains(t, pop.Domains.Pets, b.Pets[subj.ID])
	}
}

func TestMergeSourceWins(t *testing.T) {
	pop := testPopulation(t, 3, 6)
	dst := NewBelief(pop.Agents[0])
	src := NewBelief(pop.Agents[1])
	src.Pets[0] = "wrong"

	dst.Merge(src)
	assert.Equal(t, 2*NumAttributes, dst.Known())
	assert.Equal(t, "wrong", dst.Pets[0])
	assert.Equal(t, 2*NumAttributes-1, dst.Correct(pop.Agents))
	assert.Equal(t, map[AgentID]bool{0: true, 1: true}, dst.Subjects())
}

func TestCorrectTracksChangingTruth(t *testing.T) {
	pop := testPopulation(t, 2, 6)
	b := NewBelief(pop.Agents[0])
	pop.Agents[0].Pet = "p5"
	assert.Equal(t, NumAttributes-1, b.Correct(pop.Agents))
	assert.Equal(t, NumAttributes, b.Known())
}

func TestOtherValueSmallDomains(t *testing.T) {
	rng := entropy.NewSource(1)
	assert.Equal(t, "x", otherValue(nil, "x", rng))
	assert.Equal(t, "only", otherValue([]string{"only"}, "only", rng))
	assert.Equal(t, 1, otherHouse(1, 1, rng))
	assert.Equal(t, uint64(0), rng.Draws())
	assert.Equal(t, 2, otherHouse(2, 1, rng))
}

func TestLearnDirectCorruptsWithinEachAttributeDomain(t *testing.T) {
	pop := testPopulation(t, 6, 6)
	rng := entropy.NewSource(9)
	subj := pop.Agents[3]
	for i := 0; i < 30; i++ {
		b := NewBelief(pop.Agents[0])
		b.LearnDirect(subj, pop.Houses, pop.Domains, 1, rng)
		require.Contains(t, pop.Domains.Values(AttrDrink), b.Drinks[subj.ID])
		require.Contains(t, pop.Domains.Values(AttrSmokes), b.Smokes[subj.ID])
		require.Contains(t, pop.Domains.Values(AttrPet), b.Pets[subj.ID])
	}
}

func TestDomainValues(t *testing.T) {
	d := SyntheticDomains()
	assert.Equal(t, d.Drinks, d.Values(AttrDrink))
	assert.Equal(t, d.Smokes, d.Values(AttrSmokes))
	assert.Equal(t, d.Pets, d.Values(AttrPet))
	assert.Nil(t, d.Values(AttrHouse))
}

func TestAttributeString(t *testing.T) {
	assert.Equal(t, "house", AttrHouse.String())
	assert.Equal(t, "drink", AttrDrink.String())
	assert.Equal(t, "smokes", AttrSmokes.String())
	assert.Equal(t, "pet", AttrPet.String())
	assert.Equal(t, "unknown", Attribute(9).String())
}
