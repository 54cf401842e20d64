// Package random provides the injectable random source used by spawn
// selection, wave composition and mutation rolls.
package random

import (
	"hash/fnv"
	"math/rand/v2"
)

// Source is a random source. Implementations are not safe for concurrent use;
// each profile worker owns its own.
type Source interface {
	// IntN returns a uniform integer in [0, n). n must be > 0.
	IntN(n int) int
	// NextPercent returns a uniform value in [0, 100).
	NextPercent() float64
}

// Rand is a seeded PCG source.
type Rand struct {
	r *rand.Rand
}

// New creates a source that yields the same sequence for the same seed.
func New(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a uniform integer in [0, n).
func (r *Rand) IntN(n int) int {
	return r.r.IntN(n)
}

// NextPercent returns a uniform value in [0, 100).
func (r *Rand) NextPercent() float64 {
	return r.r.Float64() * 100
}

// Between returns a uniform integer in [lo, hi] using src.
// Returns lo when hi <= lo.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// SeedFor derives a per-key seed from a base seed.
// A zero base draws a fresh seed from the runtime generator.
func SeedFor(base uint64, key string) uint64 {
	if base == 0 {
		return rand.Uint64()
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return base ^ h.Sum64()
}
