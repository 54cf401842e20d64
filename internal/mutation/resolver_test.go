package mutation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/random"
	"github.com/udisondev/spawndirector/internal/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func template(id int64, prefix string, chance float64, effects ...model.MutationEffect) *model.MutationTemplate {
	return &model.MutationTemplate{
		ID:            id,
		NamePrefix:    prefix,
		ChancePercent: chance,
		Active:        true,
		CreatedAt:     epoch.Add(time.Duration(id) * time.Hour),
		Effects:       effects,
	}
}

func effect(e model.Effect) model.MutationEffect {
	return model.MutationEffect{Effect: e, Active: true}
}

func TestResolveForCreature_GlobalChance(t *testing.T) {
	r := NewResolver(true)
	group := &model.SpawnGroup{}
	templates := []*model.MutationTemplate{
		template(1, "Fiery", 100, effect(model.DamageBonus{DamageType: model.DamageFire, Amount: 4})),
		template(2, "Frail", 0, effect(model.StatBonus{Stat: model.StatHP, Amount: -10})),
	}

	hits := r.ResolveForCreature(group, templates, random.New(1))
	require.Len(t, hits, 1)
	assert.Equal(t, "Fiery", hits[0].NamePrefix)
	assert.Len(t, hits[0].Effects, 1)
}

func TestResolveForCreature_OverrideReplacesGlobal(t *testing.T) {
	r := NewResolver(true)
	group := &model.SpawnGroup{
		ID:                5,
		OverrideMutations: true,
		Overrides: []model.GroupMutationOverride{
			{GroupID: 5, TemplateID: 1, ChancePercent: 0},
			{GroupID: 5, TemplateID: 2, ChancePercent: 100},
		},
	}
	templates := []*model.MutationTemplate{
		template(1, "Fiery", 100),
		template(2, "Hulking", 0),
	}

	hits := r.ResolveForCreature(group, templates, random.New(1))
	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].TemplateID)
}

func TestResolveForCreature_OverrideOmissionOptsOut(t *testing.T) {
	r := NewResolver(true)
	group := &model.SpawnGroup{ID: 5, OverrideMutations: true}
	templates := []*model.MutationTemplate{template(1, "Fiery", 100)}

	for seed := range uint64(200) {
		hits := r.ResolveForCreature(group, templates, random.New(seed))
		assert.Empty(t, hits, "template without override must never apply")
	}
}

func TestResolveForCreature_OverridesIgnoredWhenFlagOff(t *testing.T) {
	r := NewResolver(true)
	group := &model.SpawnGroup{
		ID:        5,
		Overrides: []model.GroupMutationOverride{{GroupID: 5, TemplateID: 1, ChancePercent: 100}},
	}
	templates := []*model.MutationTemplate{template(1, "Fiery", 0)}

	assert.Empty(t, r.ResolveForCreature(group, templates, random.New(3)))
}

func TestResolveForCreature_IndependentRolls(t *testing.T) {
	r := NewResolver(true)
	src := &testutil.ScriptedSource{Percents: []float64{10, 60, 20}}
	templates := []*model.MutationTemplate{
		template(1, "Fiery", 50),
		template(2, "Hulking", 50),
		template(3, "Swift", 50),
	}

	hits := r.ResolveForCreature(&model.SpawnGroup{}, templates, src)
	require.Len(t, hits, 2)
	assert.Equal(t, "Fiery", hits[0].NamePrefix)
	assert.Equal(t, "Swift", hits[1].NamePrefix)
}

func TestResolveForCreature_Deterministic(t *testing.T) {
	r := NewResolver(true)
	templates := []*model.MutationTemplate{
		template(1, "Fiery", 30),
		template(2, "Hulking", 50),
		template(3, "Swift", 70),
	}
	group := &model.SpawnGroup{}

	a, b := random.New(77), random.New(77)
	for range 100 {
		assert.Equal(t,
			r.ResolveForCreature(group, templates, a),
			r.ResolveForCreature(group, templates, b))
	}
}

func TestResolveForCreature_EmptyHitPolicy(t *testing.T) {
	templates := []*model.MutationTemplate{
		template(1, "Shimmering", 100),
		template(2, "Fiery", 100, model.MutationEffect{Effect: model.SpeedBonus{Percent: 5}, Active: false}),
	}
	group := &model.SpawnGroup{}

	withPrefix := NewResolver(true).ResolveForCreature(group, templates, random.New(1))
	require.Len(t, withPrefix, 2)
	assert.True(t, withPrefix[0].Cosmetic())
	assert.True(t, withPrefix[1].Cosmetic(), "inactive effects do not count")

	dropped := NewResolver(false).ResolveForCreature(group, templates, random.New(1))
	assert.Empty(t, dropped)
}

func TestResolveForCreature_SkipsInactiveTemplate(t *testing.T) {
	tmpl := template(1, "Fiery", 100)
	tmpl.Active = false

	assert.Empty(t, NewResolver(true).ResolveForCreature(&model.SpawnGroup{}, []*model.MutationTemplate{tmpl}, random.New(1)))
}

func TestActiveTemplates_CreationOrder(t *testing.T) {
	a := template(3, "C", 10)
	b := template(1, "A", 10)
	c := template(2, "B", 10)
	c.Active = false

	got := ActiveTemplates([]*model.MutationTemplate{a, nil, b, c})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].NamePrefix)
	assert.Equal(t, "C", got[1].NamePrefix)
}

func TestEffectiveChance(t *testing.T) {
	tmpl := template(9, "X", 40)

	chance, ok := EffectiveChance(&model.SpawnGroup{}, tmpl)
	assert.True(t, ok)
	assert.InDelta(t, 40.0, chance, 0.001)

	g := &model.SpawnGroup{OverrideMutations: true, Overrides: []model.GroupMutationOverride{{TemplateID: 9, ChancePercent: 5}}}
	chance, ok = EffectiveChance(g, tmpl)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, chance, 0.001)

	_, ok = EffectiveChance(&model.SpawnGroup{OverrideMutations: true}, tmpl)
	assert.False(t, ok)
}
