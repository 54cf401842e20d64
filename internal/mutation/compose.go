package mutation

import (
	"strings"

	"github.com/udisondev/spawndirector/internal/model"
)

// Composite is the combined effect of all mutations on one creature.
type Composite struct {
	DisplayName  string
	Stats        map[model.Stat]int
	Abilities    map[model.Ability]int
	Damage       map[model.DamageType]int
	Resistance   map[model.DamageType]int
	SpeedPercent int
}

// Empty reports whether the composite modifies nothing.
func (c Composite) Empty() bool {
	return len(c.Stats) == 0 && len(c.Abilities) == 0 && len(c.Damage) == 0 &&
		len(c.Resistance) == 0 && c.SpeedPercent == 0
}

// Compose folds applications into a composite. Prefixes are prepended to
// baseName in application order; magnitudes of the same key add up.
func Compose(baseName string, apps []Application) Composite {
	c := Composite{
		Stats:      make(map[model.Stat]int),
		Abilities:  make(map[model.Ability]int),
		Damage:     make(map[model.DamageType]int),
		Resistance: make(map[model.DamageType]int),
	}

	parts := make([]string, 0, len(apps)+1)
	for _, app := range apps {
		if app.NamePrefix != "" {
			parts = append(parts, app.NamePrefix)
		}
		for _, e := range app.Effects {
			switch eff := e.Effect.(type) {
			case model.StatBonus:
				c.Stats[eff.Stat] += eff.Amount
			case model.AbilityBonus:
				c.Abilities[eff.Ability] += eff.Amount
			case model.DamageBonus:
				c.Damage[eff.DamageType] += eff.Amount
			case model.DamageResistance:
				c.Resistance[eff.DamageType] += eff.Amount
			case model.SpeedBonus:
				c.SpeedPercent += eff.Percent
			}
		}
	}
	parts = append(parts, baseName)
	c.DisplayName = strings.Join(parts, " ")

	return c
}
