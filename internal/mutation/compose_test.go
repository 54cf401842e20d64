package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/spawndirector/internal/model"
)

func TestCompose(t *testing.T) {
	apps := []Application{
		{
			TemplateID: 1,
			NamePrefix: "Fiery",
			Effects: []model.MutationEffect{
				effect(model.DamageBonus{DamageType: model.DamageFire, Amount: 4}),
				effect(model.DamageResistance{DamageType: model.DamageFire, Amount: 10}),
			},
		},
		{TemplateID: 2, NamePrefix: "Shimmering"},
		{
			TemplateID: 3,
			NamePrefix: "Hulking",
			Effects: []model.MutationEffect{
				effect(model.StatBonus{Stat: model.StatHP, Amount: 50}),
				effect(model.AbilityBonus{Ability: model.AbilityStr, Amount: 2}),
				effect(model.DamageBonus{DamageType: model.DamageFire, Amount: 1}),
				effect(model.SpeedBonus{Percent: -10}),
			},
		},
	}

	c := Compose("orc", apps)

	assert.Equal(t, "Fiery Shimmering Hulking orc", c.DisplayName)
	assert.Equal(t, 5, c.Damage[model.DamageFire])
	assert.Equal(t, 10, c.Resistance[model.DamageFire])
	assert.Equal(t, 50, c.Stats[model.StatHP])
	assert.Equal(t, 2, c.Abilities[model.AbilityStr])
	assert.Equal(t, -10, c.SpeedPercent)
	assert.False(t, c.Empty())
}

func TestCompose_NoHits(t *testing.T) {
	c := Compose("orc", nil)
	assert.Equal(t, "orc", c.DisplayName)
	assert.True(t, c.Empty())
}
