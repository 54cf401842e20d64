// Package selector implements weighted random selection.
package selector

import "github.com/udisondev/spawndirector/internal/random"

// Weighted pairs an item with its selection weight.
// Weights are non-negative; zero-weight items are never selected.
type Weighted[T any] struct {
	Item   T
	Weight int
}

// Select picks one item with probability weight/sum(weights).
// Returns ok=false when the input is empty or the total weight is zero.
// Negative weights are treated as zero.
func Select[T any](items []Weighted[T], src random.Source) (T, bool) {
	var zero T

	total := 0
	for _, it := range items {
		if it.Weight > 0 {
			total += it.Weight
		}
	}
	if total == 0 {
		return zero, false
	}

	roll := src.IntN(total)
	cumulative := 0
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		cumulative += it.Weight
		if roll < cumulative {
			return it.Item, true
		}
	}

	// unreachable: roll < total
	return zero, false
}
