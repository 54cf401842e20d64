// Package mutation resolves which mutation templates hit a spawned creature
// and folds their effects into a single modifier set.
package mutation

import (
	"cmp"
	"slices"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/random"
)

// Application is one template that hit a creature.
type Application struct {
	TemplateID int64
	NamePrefix string
	Effects    []model.MutationEffect // active effects only, in template order
}

// Cosmetic reports whether the hit carries only the name prefix.
func (a Application) Cosmetic() bool {
	return len(a.Effects) == 0
}

// Resolver rolls mutation templates for individual creatures.
type Resolver struct {
	prefixOnEmptyHit bool
}

// NewResolver creates a resolver.
// prefixOnEmptyHit decides whether a hit template without active effects
// still decorates the creature name; when false such hits are dropped.
func NewResolver(prefixOnEmptyHit bool) *Resolver {
	return &Resolver{prefixOnEmptyHit: prefixOnEmptyHit}
}

// ActiveTemplates filters the catalog to active templates in creation order.
func ActiveTemplates(all []*model.MutationTemplate) []*model.MutationTemplate {
	out := make([]*model.MutationTemplate, 0, len(all))
	for _, t := range all {
		if t != nil && t.Active {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.MutationTemplate) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// EffectiveChance returns the chance a template has for a group.
// ok is false when the group overrides mutations and has no entry for the
// template: omission opts the group out.
func EffectiveChance(group *model.SpawnGroup, tmpl *model.MutationTemplate) (chance float64, ok bool) {
	if !group.OverrideMutations {
		return tmpl.ChancePercent, true
	}
	o, found := group.Override(tmpl.ID)
	if !found {
		return 0, false
	}
	return o.ChancePercent, true
}

// ResolveForCreature rolls every considered template independently.
// templates must be in creation order (see ActiveTemplates); output keeps it.
func (r *Resolver) ResolveForCreature(group *model.SpawnGroup, templates []*model.MutationTemplate, src random.Source) []Application {
	var hits []Application
	for _, tmpl := range templates {
		if !tmpl.Active {
			continue
		}
		chance, ok := EffectiveChance(group, tmpl)
		if !ok {
			continue
		}
		if src.NextPercent() >= chance {
			continue
		}

		effects := tmpl.ActiveEffects()
		if len(effects) == 0 && !r.prefixOnEmptyHit {
			continue
		}
		hits = append(hits, Application{
			TemplateID: tmpl.ID,
			NamePrefix: tmpl.NamePrefix,
			Effects:    effects,
		})
	}
	return hits
}
