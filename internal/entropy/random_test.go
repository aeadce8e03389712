package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIsDeterministic(t *testing.T) {
	a := NewSource(7)
	b := NewSource(7)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float(), b.Float())
		require.Equal(t, a.IntN(13), b.IntN(13))
	}
	assert.Equal(t, uint64(200), a.Draws())
	assert.Equal(t, int64(7), a.Seed())
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)
	same := 0
	for i := 0; i < 20; i++ {
		if a.Float() == b.Float() {
			same++
		}
	}
	assert.Less(t, same, 20)
}

func TestFloatRange(t *testing.T) {
	s := NewSource(3)
	for i := 0; i < 1000; i++ {
		v := s.Float()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	s := NewSource(11)
	got := s.Sample(50, 20)
	require.Len(t, got, 20)

	seen := make(map[int]bool)
	for _, i := range got {
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 50)
		require.False(t, seen[i], "index %d drawn twice", i)
		seen[i] = true
	}
	assert.Equal(t, uint64(20), s.Draws())
}

func TestSampleClamps(t *testing.T) {
	s := NewSource(1)
	assert.Len(t, s.Sample(5, 9), 5)
	assert.Nil(t, s.Sample(5, 0))
}

func TestSeedFromSession(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want int64
	}{
		{name: "hex prefix", id: "0000002a9f3c", want: 42},
		{name: "high bit masked", id: "ffffffff0000", want: 0x7FFFFFFF},
		{name: "short hex", id: "1f", want: 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeedFromSession(tt.id))
		})
	}
}

func TestSeedFromSessionNonHex(t *testing.T) {
	a := SeedFromSession("session-one")
	b := SeedFromSession("session-one")
	c := SeedFromSession("session-two")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.GreaterOrEqual(t, a, int64(0))
	assert.LessOrEqual(t, a, int64(0x7FFFFFFF))
}
