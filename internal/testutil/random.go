package testutil

import "sync"

// ScriptedSource replays fixed random values, for tests that need exact rolls.
// When a script runs out it repeats its last value (or 0 when empty).
type ScriptedSource struct {
	mu       sync.Mutex
	Ints     []int     // values returned by IntN, clamped to [0, n)
	Percents []float64 // values returned by NextPercent
}

// IntN returns the next scripted integer clamped to [0, n).
func (s *ScriptedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := 0
	if len(s.Ints) > 0 {
		v = s.Ints[0]
		if len(s.Ints) > 1 {
			s.Ints = s.Ints[1:]
		}
	}
	return min(max(v, 0), n-1)
}

// NextPercent returns the next scripted percentage.
func (s *ScriptedSource) NextPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Percents) == 0 {
		return 0
	}
	v := s.Percents[0]
	if len(s.Percents) > 1 {
		s.Percents = s.Percents[1:]
	}
	return v
}
