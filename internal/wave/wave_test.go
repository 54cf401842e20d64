package wave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/random"
)

func orcGroup() *model.SpawnGroup {
	return &model.SpawnGroup{
		ID:     1,
		Name:   "orc patrol",
		Weight: 10,
		Entries: []model.SpawnEntry{
			{ID: 1, CreatureID: "orc", RelativeWeight: 1, MinCount: 2, MaxCount: 4},
			{ID: 2, CreatureID: "orc_shaman", RelativeWeight: 1, MinCount: 1, MaxCount: 1},
		},
	}
}

func TestCompose_CountsWithinRange(t *testing.T) {
	group := orcGroup()

	for seed := range uint64(500) {
		w := Compose(group, nil, random.New(seed))
		require.Len(t, w.Members, 2)

		for i, m := range w.Members {
			e := group.Entries[i]
			assert.Equal(t, e.CreatureID, m.CreatureID)
			if m.Count < e.MinCount || m.Count > e.MaxCount {
				t.Fatalf("seed %d: %s count = %d; want [%d, %d]", seed, m.CreatureID, m.Count, e.MinCount, e.MaxCount)
			}
		}
		assert.False(t, w.HasMiniBoss)
	}
}

func TestCompose_CoversWholeRange(t *testing.T) {
	group := &model.SpawnGroup{Entries: []model.SpawnEntry{{CreatureID: "orc", RelativeWeight: 1, MinCount: 2, MaxCount: 4}}}
	src := random.New(11)

	seen := map[int]bool{}
	for range 300 {
		seen[Compose(group, nil, src).Size()] = true
	}
	assert.Equal(t, map[int]bool{2: true, 3: true, 4: true}, seen)
}

func TestCompose_EveryEntryContributes(t *testing.T) {
	group := orcGroup()
	group.Entries[1].RelativeWeight = 0

	for seed := range uint64(50) {
		w := Compose(group, nil, random.New(seed))
		require.Len(t, w.Members, 2)
		assert.Equal(t, "orc", w.Members[0].CreatureID)
		assert.Equal(t, Member{EntryID: 2, CreatureID: "orc_shaman", Count: 1}, w.Members[1])
	}
}

func TestCompose_EmptyGroup(t *testing.T) {
	w := Compose(&model.SpawnGroup{}, nil, random.New(1))
	assert.Zero(t, w.Size())
	assert.Empty(t, w.Creatures())
}

func TestCompose_MiniBossAlways(t *testing.T) {
	mb := &model.MiniBossConfig{ID: 3, CreatureID: "orc_warlord", ChancePercent: 100}

	for seed := range uint64(200) {
		w := Compose(orcGroup(), mb, random.New(seed))
		require.True(t, w.HasMiniBoss)
		last := w.Members[len(w.Members)-1]
		assert.Equal(t, Member{CreatureID: "orc_warlord", Count: 1, MiniBoss: true}, last)
	}
}

func TestCompose_MiniBossNever(t *testing.T) {
	mb := &model.MiniBossConfig{ID: 3, CreatureID: "orc_warlord", ChancePercent: 0}

	for seed := range uint64(200) {
		w := Compose(orcGroup(), mb, random.New(seed))
		assert.False(t, w.HasMiniBoss)
		for _, m := range w.Members {
			assert.False(t, m.MiniBoss)
		}
	}
}

func TestWave_CreaturesAndTruncate(t *testing.T) {
	w := Wave{
		Members: []Member{
			{CreatureID: "orc", Count: 3},
			{CreatureID: "orc_shaman", Count: 1},
			{CreatureID: "orc_warlord", Count: 1, MiniBoss: true},
		},
		HasMiniBoss: true,
	}

	require.Equal(t, 5, w.Size())
	creatures := w.Creatures()
	require.Len(t, creatures, 5)
	assert.True(t, creatures[4].MiniBoss)

	cut := w.Truncate(4)
	assert.Equal(t, 4, cut.Size())
	assert.False(t, cut.HasMiniBoss, "miniboss is dropped first")

	cut = w.Truncate(2)
	require.Len(t, cut.Members, 1)
	assert.Equal(t, Member{CreatureID: "orc", Count: 2}, cut.Members[0])

	assert.Equal(t, 0, w.Truncate(0).Size())
	assert.Equal(t, w, w.Truncate(10))
}
