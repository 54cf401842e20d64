package model

import (
	"fmt"
	"time"
)

// MutationTemplate is a global catalog entry: a named, chance-based bundle of effects.
type MutationTemplate struct {
	ID            int64
	NamePrefix    string
	Description   string
	ChancePercent float64
	Active        bool
	CreatedAt     time.Time
	Effects       []MutationEffect
}

// ActiveEffects returns the template's effects that are switched on, in order.
func (t *MutationTemplate) ActiveEffects() []MutationEffect {
	var out []MutationEffect
	for _, e := range t.Effects {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

// MutationEffect is one modifier of a template.
type MutationEffect struct {
	ID       int64
	Effect   Effect
	Duration time.Duration // 0 = until death
	Active   bool
}

// EffectKind names an Effect variant.
type EffectKind string

const (
	EffectStat       EffectKind = "stat"
	EffectAbility    EffectKind = "ability"
	EffectDamage     EffectKind = "damage"
	EffectResistance EffectKind = "resistance"
	EffectSpeed      EffectKind = "speed"
)

// Effect is the closed set of mutation effect payloads:
// StatBonus, AbilityBonus, DamageBonus, DamageResistance, SpeedBonus.
type Effect interface {
	Kind() EffectKind
	isEffect()
}

// Stat is a derived creature statistic.
type Stat string

const (
	StatHP          Stat = "hp"
	StatArmor       Stat = "armor"
	StatAttack      Stat = "attack"
	StatRegen       Stat = "regen"
	StatSpellResist Stat = "spell_resist"
)

// Ability is a primary creature attribute.
type Ability string

const (
	AbilityStr Ability = "str"
	AbilityDex Ability = "dex"
	AbilityCon Ability = "con"
	AbilityInt Ability = "int"
	AbilityWis Ability = "wis"
	AbilityCha Ability = "cha"
)

// DamageType qualifies damage and resistance effects.
type DamageType string

const (
	DamagePhysical   DamageType = "physical"
	DamageFire       DamageType = "fire"
	DamageCold       DamageType = "cold"
	DamageAcid       DamageType = "acid"
	DamageElectrical DamageType = "electrical"
	DamageSonic      DamageType = "sonic"
	DamageNegative   DamageType = "negative"
	DamageDivine     DamageType = "divine"
)

var (
	stats = map[Stat]struct{}{
		StatHP: {}, StatArmor: {}, StatAttack: {}, StatRegen: {}, StatSpellResist: {},
	}
	abilities = map[Ability]struct{}{
		AbilityStr: {}, AbilityDex: {}, AbilityCon: {}, AbilityInt: {}, AbilityWis: {}, AbilityCha: {},
	}
	damageTypes = map[DamageType]struct{}{
		DamagePhysical: {}, DamageFire: {}, DamageCold: {}, DamageAcid: {},
		DamageElectrical: {}, DamageSonic: {}, DamageNegative: {}, DamageDivine: {},
	}
)

// StatBonus raises a derived stat.
type StatBonus struct {
	Stat   Stat
	Amount int
}

// AbilityBonus raises a primary ability.
type AbilityBonus struct {
	Ability Ability
	Amount  int
}

// DamageBonus adds extra damage of a type to attacks.
type DamageBonus struct {
	DamageType DamageType
	Amount     int
}

// DamageResistance absorbs damage of a type.
type DamageResistance struct {
	DamageType DamageType
	Amount     int
}

// SpeedBonus increases movement speed by a percentage.
type SpeedBonus struct {
	Percent int
}

func (StatBonus) Kind() EffectKind        { return EffectStat }
func (AbilityBonus) Kind() EffectKind     { return EffectAbility }
func (DamageBonus) Kind() EffectKind      { return EffectDamage }
func (DamageResistance) Kind() EffectKind { return EffectResistance }
func (SpeedBonus) Kind() EffectKind       { return EffectSpeed }

func (StatBonus) isEffect()        {}
func (AbilityBonus) isEffect()     {}
func (DamageBonus) isEffect()      {}
func (DamageResistance) isEffect() {}
func (SpeedBonus) isEffect()       {}

// NewEffect builds a typed effect from its stored columns.
// qualifier is the stat, ability or damage type depending on kind; unused for speed.
func NewEffect(kind string, magnitude int, qualifier string) (Effect, error) {
	switch EffectKind(kind) {
	case EffectStat:
		if _, ok := stats[Stat(qualifier)]; !ok {
			return nil, fmt.Errorf("stat effect: unknown stat %q: %w", qualifier, ErrInvalidConfig)
		}
		return StatBonus{Stat: Stat(qualifier), Amount: magnitude}, nil
	case EffectAbility:
		if _, ok := abilities[Ability(qualifier)]; !ok {
			return nil, fmt.Errorf("ability effect: unknown ability %q: %w", qualifier, ErrInvalidConfig)
		}
		return AbilityBonus{Ability: Ability(qualifier), Amount: magnitude}, nil
	case EffectDamage:
		if _, ok := damageTypes[DamageType(qualifier)]; !ok {
			return nil, fmt.Errorf("damage effect: unknown damage type %q: %w", qualifier, ErrInvalidConfig)
		}
		return DamageBonus{DamageType: DamageType(qualifier), Amount: magnitude}, nil
	case EffectResistance:
		if _, ok := damageTypes[DamageType(qualifier)]; !ok {
			return nil, fmt.Errorf("resistance effect: unknown damage type %q: %w", qualifier, ErrInvalidConfig)
		}
		return DamageResistance{DamageType: DamageType(qualifier), Amount: magnitude}, nil
	case EffectSpeed:
		return SpeedBonus{Percent: magnitude}, nil
	default:
		return nil, fmt.Errorf("unknown effect kind %q: %w", kind, ErrInvalidConfig)
	}
}
