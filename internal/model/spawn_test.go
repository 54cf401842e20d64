package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   SpawnEntry
		wantErr bool
	}{
		{"valid range", SpawnEntry{CreatureID: "orc", RelativeWeight: 1, MinCount: 2, MaxCount: 4}, false},
		{"single count", SpawnEntry{CreatureID: "orc", RelativeWeight: 1, MinCount: 1, MaxCount: 1}, false},
		{"zero weight allowed", SpawnEntry{CreatureID: "orc", MinCount: 1, MaxCount: 1}, false},
		{"min below one", SpawnEntry{CreatureID: "orc", RelativeWeight: 1, MinCount: 0, MaxCount: 3}, true},
		{"max below min", SpawnEntry{CreatureID: "orc", RelativeWeight: 1, MinCount: 3, MaxCount: 2}, true},
		{"negative weight", SpawnEntry{CreatureID: "orc", RelativeWeight: -1, MinCount: 1, MaxCount: 1}, true},
		{"no creature", SpawnEntry{RelativeWeight: 1, MinCount: 1, MaxCount: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSpawnGroup_Override(t *testing.T) {
	g := &SpawnGroup{
		OverrideMutations: true,
		Overrides: []GroupMutationOverride{
			{GroupID: 1, TemplateID: 10, ChancePercent: 75},
		},
	}

	o, ok := g.Override(10)
	require.True(t, ok)
	assert.InDelta(t, 75.0, o.ChancePercent, 0.001)

	_, ok = g.Override(11)
	assert.False(t, ok)
}

func TestActiveBonuses_ByOwner(t *testing.T) {
	p := &SpawnProfile{
		ID: 1,
		Bonuses: []SpawnBonus{
			{ID: 1, Owner: ProfileOwner{ProfileID: 1}, Type: BonusHaste, Active: true},
			{ID: 2, Owner: ProfileOwner{ProfileID: 1}, Type: BonusArmor, Active: false},
		},
		MiniBoss: &MiniBossConfig{
			ID: 7, CreatureID: "ogre_chief", ChancePercent: 10,
			Bonuses: []SpawnBonus{
				{ID: 3, Owner: MiniBossOwner{MiniBossID: 7}, Type: BonusDamageShield, Active: true},
			},
		},
	}

	got := p.ActiveBonuses()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	mb := p.MiniBoss.ActiveBonuses()
	require.Len(t, mb, 1)
	assert.Equal(t, int64(7), mb[0].Owner.OwnerID())
	assert.IsType(t, MiniBossOwner{}, mb[0].Owner)
}

func TestMiniBossConfig_Validate(t *testing.T) {
	assert.NoError(t, (&MiniBossConfig{CreatureID: "boss", ChancePercent: 100}).Validate())
	assert.ErrorIs(t, (&MiniBossConfig{CreatureID: "boss", ChancePercent: 101}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&MiniBossConfig{ChancePercent: 5}).Validate(), ErrInvalidConfig)
}

func TestNewEffect(t *testing.T) {
	e, err := NewEffect("damage", 5, "fire")
	require.NoError(t, err)
	assert.Equal(t, DamageBonus{DamageType: DamageFire, Amount: 5}, e)
	assert.Equal(t, EffectDamage, e.Kind())

	e, err = NewEffect("speed", 25, "")
	require.NoError(t, err)
	assert.Equal(t, SpeedBonus{Percent: 25}, e)

	_, err = NewEffect("ability", 2, "luck")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewEffect("teleport", 1, "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseBonusType(t *testing.T) {
	bt, err := ParseBonusType("haste")
	require.NoError(t, err)
	assert.Equal(t, BonusHaste, bt)

	_, err = ParseBonusType("flying")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigError(t *testing.T) {
	cause := errors.New("negative weight -1")
	var err error = &ConfigError{Area: "orc_camp", Scope: "group", ID: 10, Err: cause}

	assert.Equal(t, "area orc_camp: group 10: negative weight -1", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, cause)

	var ce *ConfigError
	require.ErrorAs(t, fmt.Errorf("loading: %w", err), &ce)
	assert.Equal(t, "group", ce.Scope)
}
