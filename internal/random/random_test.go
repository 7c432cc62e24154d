package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleKeepsInputAndElements(t *testing.T) {
	r := NewSeeded(1, 2)
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append([]int(nil), in...)

	out := Shuffle(r, in)

	assert.Equal(t, orig, in, "input must not be mutated")
	assert.ElementsMatch(t, orig, out)
}

func TestShuffleIsRoughlyUniform(t *testing.T) {
	r := NewSeeded(42, 7)
	const rounds = 30000
	in := []int{0, 1, 2}
	// counts[value][position]
	var counts [3][3]int
	for i := 0; i < rounds; i++ {
		for pos, v := range Shuffle(r, in) {
			counts[v][pos]++
		}
	}
	expected := float64(rounds) / 3
	for v := range counts {
		for pos := range counts[v] {
			got := float64(counts[v][pos])
			assert.InDelta(t, expected, got, expected*0.05, "value %d at position %d", v, pos)
		}
	}
}

func TestSampleLength(t *testing.T) {
	r := NewSeeded(3, 4)
	in := []string{"a", "b", "c", "d", "e"}

	assert.Len(t, Sample(r, in, 3), 3)
	assert.Len(t, Sample(r, in, 15), 5)
	assert.Empty(t, Sample(r, in, 0))
	assert.Empty(t, Sample(r, in, -2))
	assert.Empty(t, Sample(r, []string{}, 4))
}

func TestSampleHasNoRepeats(t *testing.T) {
	r := NewSeeded(5, 6)
	in := make([]int, 50)
	for i := range in {
		in[i] = i
	}
	for round := 0; round < 100; round++ {
		seen := map[int]bool{}
		for _, v := range Sample(r, in, 20) {
			require.False(t, seen[v], "value %d sampled twice", v)
			seen[v] = true
		}
	}
}

func TestSampleCoversAllElements(t *testing.T) {
	r := NewSeeded(8, 9)
	in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	hits := make([]int, len(in))
	const rounds = 20000
	for i := 0; i < rounds; i++ {
		for _, v := range Sample(r, in, 3) {
			hits[v]++
		}
	}
	expected := float64(rounds*3) / float64(len(in))
	for v, h := range hits {
		assert.InDelta(t, expected, float64(h), expected*0.06, "element %d", v)
	}
}
