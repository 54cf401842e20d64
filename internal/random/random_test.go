package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRand_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)

	for range 100 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
		assert.Equal(t, a.NextPercent(), b.NextPercent())
	}
}

func TestRand_NextPercentRange(t *testing.T) {
	r := New(7)
	for range 10000 {
		p := r.NextPercent()
		if p < 0 || p >= 100 {
			t.Fatalf("NextPercent() = %f; want [0, 100)", p)
		}
	}
}

func TestBetween(t *testing.T) {
	r := New(1)
	seen := make(map[int]bool)
	for range 1000 {
		v := Between(r, 2, 4)
		if v < 2 || v > 4 {
			t.Fatalf("Between(2, 4) = %d; out of range", v)
		}
		seen[v] = true
	}
	assert.Len(t, seen, 3, "all values of [2,4] should appear")

	assert.Equal(t, 5, Between(r, 5, 5))
	assert.Equal(t, 5, Between(r, 5, 3))
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, SeedFor(99, "forest_01"), SeedFor(99, "forest_01"))
	assert.NotEqual(t, SeedFor(99, "forest_01"), SeedFor(99, "forest_02"))
}
