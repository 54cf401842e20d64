// Package wave composes the creature list of one spawn wave.
package wave

import (
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/random"
)

// Member is one creature type and how many of it a wave spawns.
type Member struct {
	EntryID    int64 // 0 for the miniboss
	CreatureID string
	Count      int
	MiniBoss   bool
}

// Wave is the composed output for one scheduling decision.
// Normal entries come first; the miniboss, if any, is always last.
type Wave struct {
	Members     []Member
	HasMiniBoss bool
}

// Creature is a single creature of an expanded wave.
type Creature struct {
	CreatureID string
	MiniBoss   bool
}

// Size returns the total number of creatures.
func (w Wave) Size() int {
	n := 0
	for _, m := range w.Members {
		n += m.Count
	}
	return n
}

// Creatures expands members into individual creatures in wave order.
func (w Wave) Creatures() []Creature {
	out := make([]Creature, 0, w.Size())
	for _, m := range w.Members {
		for range m.Count {
			out = append(out, Creature{CreatureID: m.CreatureID, MiniBoss: m.MiniBoss})
		}
	}
	return out
}

// Truncate keeps the first n creatures. Because the miniboss is last it is
// the first creature dropped.
func (w Wave) Truncate(n int) Wave {
	if n >= w.Size() {
		return w
	}

	out := Wave{}
	left := n
	for _, m := range w.Members {
		if left <= 0 {
			break
		}
		take := min(m.Count, left)
		m.Count = take
		out.Members = append(out.Members, m)
		if m.MiniBoss {
			out.HasMiniBoss = true
		}
		left -= take
	}
	return out
}

// Compose rolls the wave for a chosen group.
// Every entry contributes a count drawn uniformly from [MinCount, MaxCount];
// entries are not alternatives to each other and RelativeWeight does not
// gate inclusion. The miniboss roll is independent of the entries.
func Compose(group *model.SpawnGroup, miniBoss *model.MiniBossConfig, src random.Source) Wave {
	var w Wave
	for _, e := range group.Entries {
		w.Members = append(w.Members, Member{
			EntryID:    e.ID,
			CreatureID: e.CreatureID,
			Count:      random.Between(src, e.MinCount, e.MaxCount),
		})
	}

	if RollMiniBoss(miniBoss, src) {
		w.Members = append(w.Members, Member{
			CreatureID: miniBoss.CreatureID,
			Count:      1,
			MiniBoss:   true,
		})
		w.HasMiniBoss = true
	}
	return w
}

// RollMiniBoss reports whether the miniboss joins this wave.
// A nil config never hits.
func RollMiniBoss(mb *model.MiniBossConfig, src random.Source) bool {
	if mb == nil {
		return false
	}
	return src.NextPercent() < mb.ChancePercent
}
