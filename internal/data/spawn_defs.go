package data

import (
	"fmt"
	"time"

	"github.com/udisondev/spawndirector/internal/model"
)

// Catalog is the YAML document: every profile plus the mutation catalog.
type Catalog struct {
	Templates []templateDef `yaml:"templates"`
	Profiles  []profileDef  `yaml:"profiles"`
}

type templateDef struct {
	ID          int64       `yaml:"id"`
	Prefix      string      `yaml:"prefix"`
	Description string      `yaml:"description"`
	Chance      float64     `yaml:"chance"`
	Active      *bool       `yaml:"active"`
	CreatedAt   time.Time   `yaml:"created_at"`
	Effects     []effectDef `yaml:"effects"`
}

type effectDef struct {
	Kind      string        `yaml:"kind"`
	Qualifier string        `yaml:"qualifier"`
	Magnitude int           `yaml:"magnitude"`
	Duration  time.Duration `yaml:"duration"`
	Active    *bool         `yaml:"active"`
}

type profileDef struct {
	ID           int64         `yaml:"id"`
	Area         string        `yaml:"area"`
	Name         string        `yaml:"name"`
	Active       *bool         `yaml:"active"`
	Cooldown     time.Duration `yaml:"cooldown"`
	DespawnAfter time.Duration `yaml:"despawn_after"`
	MaxTotal     int           `yaml:"max_total"`
	MiniBoss     *miniBossDef  `yaml:"miniboss"`
	Bonuses      []bonusDef    `yaml:"bonuses"`
	Groups       []groupDef    `yaml:"groups"`
}

type miniBossDef struct {
	ID       int64      `yaml:"id"`
	Creature string     `yaml:"creature"`
	Chance   float64    `yaml:"chance"`
	Bonuses  []bonusDef `yaml:"bonuses"`
}

type bonusDef struct {
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type"`
	Magnitude int           `yaml:"magnitude"`
	Duration  time.Duration `yaml:"duration"`
	Active    *bool         `yaml:"active"`
}

type groupDef struct {
	ID                int64          `yaml:"id"`
	Name              string         `yaml:"name"`
	Weight            int            `yaml:"weight"`
	OverrideMutations bool           `yaml:"override_mutations"`
	Entries           []entryDef     `yaml:"entries"`
	Conditions        []conditionDef `yaml:"conditions"`
	Overrides         []overrideDef  `yaml:"overrides"`
}

type entryDef struct {
	Creature string `yaml:"creature"`
	Weight   *int   `yaml:"weight"`
	Min      int    `yaml:"min"`
	Max      int    `yaml:"max"`
}

type conditionDef struct {
	Type  string `yaml:"type"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
}

type overrideDef struct {
	Template int64   `yaml:"template"`
	Chance   float64 `yaml:"chance"`
}

// ids hands out ids for rows the file leaves unnumbered.
type ids struct {
	next int64
}

func (g *ids) or(id int64) int64 {
	if id != 0 {
		return id
	}
	g.next++
	return g.next
}

// maxID returns the largest id the file sets explicitly, so generated ids
// never collide with authored ones.
func (c *Catalog) maxID() int64 {
	var m int64
	for _, t := range c.Templates {
		m = max(m, t.ID)
	}
	for _, p := range c.Profiles {
		m = max(m, p.ID)
		if p.MiniBoss != nil {
			m = max(m, p.MiniBoss.ID)
		}
		for _, g := range p.Groups {
			m = max(m, g.ID)
		}
	}
	return m
}

func enabled(b *bool) bool {
	return b == nil || *b
}

func (d templateDef) toModel(seq *ids) (*model.MutationTemplate, error) {
	t := &model.MutationTemplate{
		ID:            seq.or(d.ID),
		NamePrefix:    d.Prefix,
		Description:   d.Description,
		ChancePercent: d.Chance,
		Active:        enabled(d.Active),
		CreatedAt:     d.CreatedAt,
	}
	for i, ed := range d.Effects {
		effect, err := model.NewEffect(ed.Kind, ed.Magnitude, ed.Qualifier)
		if err != nil {
			return nil, fmt.Errorf("template %q effect %d: %w", d.Prefix, i, err)
		}
		t.Effects = append(t.Effects, model.MutationEffect{
			ID:       seq.or(0),
			Effect:   effect,
			Duration: ed.Duration,
			Active:   enabled(ed.Active),
		})
	}
	return t, nil
}

func (d profileDef) toModel(seq *ids) (*model.SpawnProfile, error) {
	if d.Area == "" {
		return nil, fmt.Errorf("profile %d: missing area: %w", d.ID, model.ErrInvalidConfig)
	}

	p := &model.SpawnProfile{
		ID:             seq.or(d.ID),
		AreaResRef:     d.Area,
		Name:           d.Name,
		Active:         enabled(d.Active),
		Cooldown:       d.Cooldown,
		DespawnAfter:   d.DespawnAfter,
		MaxTotalSpawns: d.MaxTotal,
	}
	if p.Name == "" {
		p.Name = p.AreaResRef
	}

	bonuses, err := bonusesToModel(d.Bonuses, model.ProfileOwner{ProfileID: p.ID}, seq)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", d.Area, err)
	}
	p.Bonuses = bonuses

	if mb := d.MiniBoss; mb != nil {
		cfg := &model.MiniBossConfig{
			ID:            seq.or(mb.ID),
			ProfileID:     p.ID,
			CreatureID:    mb.Creature,
			ChancePercent: mb.Chance,
		}
		cfg.Bonuses, err = bonusesToModel(mb.Bonuses, model.MiniBossOwner{MiniBossID: cfg.ID}, seq)
		if err != nil {
			return nil, fmt.Errorf("profile %s miniboss: %w", d.Area, err)
		}
		p.MiniBoss = cfg
	}

	for _, gd := range d.Groups {
		g := &model.SpawnGroup{
			ID:                seq.or(gd.ID),
			ProfileID:         p.ID,
			Name:              gd.Name,
			Weight:            gd.Weight,
			OverrideMutations: gd.OverrideMutations,
		}
		for _, ed := range gd.Entries {
			weight := 1
			if ed.Weight != nil {
				weight = *ed.Weight
			}
			maxCount := ed.Max
			if maxCount == 0 {
				maxCount = ed.Min
			}
			g.Entries = append(g.Entries, model.SpawnEntry{
				ID:             seq.or(0),
				GroupID:        g.ID,
				CreatureID:     ed.Creature,
				RelativeWeight: weight,
				MinCount:       ed.Min,
				MaxCount:       maxCount,
			})
		}
		for _, cd := range gd.Conditions {
			g.Conditions = append(g.Conditions, model.SpawnCondition{
				ID:       seq.or(0),
				GroupID:  g.ID,
				Type:     cd.Type,
				Operator: cd.Op,
				Value:    cd.Value,
			})
		}
		for _, od := range gd.Overrides {
			g.Overrides = append(g.Overrides, model.GroupMutationOverride{
				GroupID:       g.ID,
				TemplateID:    od.Template,
				ChancePercent: od.Chance,
			})
		}
		p.Groups = append(p.Groups, g)
	}
	return p, nil
}

func bonusesToModel(defs []bonusDef, owner model.BonusOwner, seq *ids) ([]model.SpawnBonus, error) {
	var out []model.SpawnBonus
	for _, bd := range defs {
		t, err := model.ParseBonusType(bd.Type)
		if err != nil {
			return nil, fmt.Errorf("bonus %q: %w", bd.Name, err)
		}
		out = append(out, model.SpawnBonus{
			ID:        seq.or(0),
			Owner:     owner,
			Name:      bd.Name,
			Type:      t,
			Magnitude: bd.Magnitude,
			Duration:  bd.Duration,
			Active:    enabled(bd.Active),
		})
	}
	return out, nil
}
