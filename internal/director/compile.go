package director

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/spawndirector/internal/condition"
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/scheduler"
)

// compiledGroup is a group whose conditions parsed and whose entries validated.
type compiledGroup struct {
	group      *model.SpawnGroup
	conditions []condition.Condition
}

// compiledProfile is the immutable snapshot a worker schedules from.
type compiledProfile struct {
	profile         *model.SpawnProfile
	groups          []*compiledGroup
	miniBoss        *model.MiniBossConfig
	profileBonuses  []model.SpawnBonus
	miniBossBonuses []model.SpawnBonus
}

func (c *compiledProfile) schedulerConfig() scheduler.Config {
	return scheduler.Config{
		Cooldown:     c.profile.Cooldown,
		DespawnAfter: c.profile.DespawnAfter,
		MaxTotal:     c.profile.MaxTotalSpawns,
	}
}

// compileProfile validates a loaded profile. Broken entries, groups and
// minibosses are left out and reported; the returned error is non-nil only
// when the profile as a whole is unusable.
func compileProfile(p *model.SpawnProfile) (*compiledProfile, []error) {
	if p == nil {
		return nil, []error{fmt.Errorf("nil profile: %w", model.ErrInvalidConfig)}
	}
	if p.AreaResRef == "" {
		return nil, []error{&model.ConfigError{Scope: "profile", ID: p.ID, Err: errors.New("empty area resref")}}
	}

	var problems []error
	reject := func(scope string, id int64, err error) {
		problems = append(problems, &model.ConfigError{Area: p.AreaResRef, Scope: scope, ID: id, Err: err})
	}

	// Work on a copy so the repository's value is never mutated.
	prof := *p
	if prof.Cooldown < 0 {
		reject("profile", p.ID, fmt.Errorf("negative cooldown %s", prof.Cooldown))
		prof.Cooldown = 0
	}
	if prof.DespawnAfter < 0 {
		reject("profile", p.ID, fmt.Errorf("negative despawn duration %s", prof.DespawnAfter))
		prof.DespawnAfter = 0
	}
	if prof.MaxTotalSpawns < 0 {
		reject("profile", p.ID, fmt.Errorf("negative max total spawns %d", prof.MaxTotalSpawns))
		prof.MaxTotalSpawns = 0
	}

	out := &compiledProfile{
		profile:        &prof,
		profileBonuses: prof.ActiveBonuses(),
	}

	if mb := prof.MiniBoss; mb != nil {
		if err := mb.Validate(); err != nil {
			reject("miniboss", mb.ID, err)
		} else {
			out.miniBoss = mb
			out.miniBossBonuses = mb.ActiveBonuses()
		}
	}

	for _, g := range prof.Groups {
		if g == nil {
			continue
		}
		cg, errs := compileGroup(g)
		for _, err := range errs {
			var ce *model.ConfigError
			if errors.As(err, &ce) {
				ce.Area = prof.AreaResRef
			}
			problems = append(problems, err)
		}
		if cg != nil {
			out.groups = append(out.groups, cg)
		}
	}

	return out, problems
}

func compileGroup(g *model.SpawnGroup) (*compiledGroup, []error) {
	var problems []error
	reject := func(scope string, id int64, err error) {
		problems = append(problems, &model.ConfigError{Scope: scope, ID: id, Err: err})
	}

	if g.Weight < 0 {
		reject("group", g.ID, fmt.Errorf("negative weight %d", g.Weight))
		return nil, problems
	}

	conds := make([]condition.Condition, 0, len(g.Conditions))
	for _, sc := range g.Conditions {
		c, err := condition.Parse(sc)
		if err != nil {
			reject("condition", sc.ID, err)
			// A group gated by a condition we cannot evaluate must never spawn.
			reject("group", g.ID, errors.New("excluded: unparseable condition"))
			return nil, problems
		}
		conds = append(conds, c)
	}

	grp := *g
	grp.Entries = make([]model.SpawnEntry, 0, len(g.Entries))
	for _, e := range g.Entries {
		if err := e.Validate(); err != nil {
			reject("entry", e.ID, err)
			continue
		}
		grp.Entries = append(grp.Entries, e)
	}
	if len(grp.Entries) == 0 {
		reject("group", g.ID, errors.New("excluded: no valid entries"))
		return nil, problems
	}

	grp.Overrides = make([]model.GroupMutationOverride, 0, len(g.Overrides))
	seen := make(map[int64]struct{}, len(g.Overrides))
	for _, o := range g.Overrides {
		if o.ChancePercent < 0 || o.ChancePercent > 100 {
			reject("override", o.TemplateID, fmt.Errorf("chance %.2f outside [0, 100]", o.ChancePercent))
			continue
		}
		if _, dup := seen[o.TemplateID]; dup {
			reject("override", o.TemplateID, errors.New("duplicate override for template"))
			continue
		}
		seen[o.TemplateID] = struct{}{}
		grp.Overrides = append(grp.Overrides, o)
	}

	return &compiledGroup{group: &grp, conditions: conds}, problems
}

// compileTemplates drops templates that can never hit or be ordered sensibly.
func compileTemplates(all []*model.MutationTemplate) ([]*model.MutationTemplate, []error) {
	var problems []error
	out := make([]*model.MutationTemplate, 0, len(all))
	prefixes := make(map[string]int64, len(all))

	for _, t := range all {
		if t == nil {
			continue
		}
		if t.ChancePercent < 0 || t.ChancePercent > 100 {
			problems = append(problems, &model.ConfigError{Scope: "template", ID: t.ID,
				Err: fmt.Errorf("chance %.2f outside [0, 100]", t.ChancePercent)})
			continue
		}
		if other, dup := prefixes[t.NamePrefix]; dup {
			problems = append(problems, &model.ConfigError{Scope: "template", ID: t.ID,
				Err: fmt.Errorf("name prefix %q already used by template %d", t.NamePrefix, other)})
			continue
		}
		prefixes[t.NamePrefix] = t.ID
		out = append(out, t)
	}
	return out, problems
}

func logProblems(msg string, problems []error) {
	for _, err := range problems {
		slog.Warn(msg, "error", err)
	}
}

// Validate reports every problem that would make the director drop part
// or all of p. An empty result means p is used as authored.
func Validate(p *model.SpawnProfile) []error {
	_, problems := compileProfile(p)
	return problems
}

// ValidateTemplates reports templates the director would drop.
func ValidateTemplates(all []*model.MutationTemplate) []error {
	_, problems := compileTemplates(all)
	return problems
}
