package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/spawndirector/internal/model"
)

// SpawnConfigRepository loads spawn profiles and mutation templates from PostgreSQL.
type SpawnConfigRepository struct {
	pool *pgxpool.Pool
}

// NewSpawnConfigRepository creates a new spawn configuration repository
func NewSpawnConfigRepository(pool *pgxpool.Pool) *SpawnConfigRepository {
	return &SpawnConfigRepository{pool: pool}
}

const profileColumns = `id, area_resref, name, active, cooldown_seconds, despawn_seconds, max_total_spawns`

// LoadProfile загружает профиль области вместе со всем деревом.
// Возвращает nil, nil если профиля нет.
func (r *SpawnConfigRepository) LoadProfile(ctx context.Context, areaResRef string) (*model.SpawnProfile, error) {
	profiles, err := r.loadProfiles(ctx,
		`SELECT `+profileColumns+` FROM spawn_profiles WHERE area_resref = $1`, areaResRef)
	if err != nil {
		return nil, fmt.Errorf("loading profile for area %s: %w", areaResRef, err)
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return profiles[0], nil
}

// LoadActiveProfiles loads every active profile ordered by area.
func (r *SpawnConfigRepository) LoadActiveProfiles(ctx context.Context) ([]*model.SpawnProfile, error) {
	profiles, err := r.loadProfiles(ctx,
		`SELECT `+profileColumns+` FROM spawn_profiles WHERE active ORDER BY area_resref`)
	if err != nil {
		return nil, fmt.Errorf("loading active profiles: %w", err)
	}
	return profiles, nil
}

func (r *SpawnConfigRepository) loadProfiles(ctx context.Context, query string, args ...any) ([]*model.SpawnProfile, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query spawn_profiles: %w", err)
	}
	defer rows.Close()

	var (
		profiles []*model.SpawnProfile
		ids      []int64
		byID     = make(map[int64]*model.SpawnProfile)
	)
	for rows.Next() {
		var (
			p                 model.SpawnProfile
			cooldown, despawn int32
			maxTotal          int32
		)
		if err := rows.Scan(&p.ID, &p.AreaResRef, &p.Name, &p.Active, &cooldown, &despawn, &maxTotal); err != nil {
			return nil, fmt.Errorf("scanning spawn profile row: %w", err)
		}
		p.Cooldown = seconds(cooldown)
		p.DespawnAfter = seconds(despawn)
		p.MaxTotalSpawns = int(maxTotal)

		profiles = append(profiles, &p)
		ids = append(ids, p.ID)
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spawn profile rows: %w", err)
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	groups, err := r.loadGroups(ctx, ids, byID)
	if err != nil {
		return nil, err
	}
	if err := r.loadGroupChildren(ctx, groups); err != nil {
		return nil, err
	}

	miniBosses, err := r.loadMiniBosses(ctx, ids, byID)
	if err != nil {
		return nil, err
	}
	if err := r.loadBonuses(ctx, ids, byID, miniBosses); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *SpawnConfigRepository) loadGroups(ctx context.Context, profileIDs []int64, byID map[int64]*model.SpawnProfile) (map[int64]*model.SpawnGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, profile_id, name, weight, override_mutations
		 FROM spawn_groups WHERE profile_id = ANY($1) ORDER BY id`, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("query spawn_groups: %w", err)
	}
	defer rows.Close()

	groups := make(map[int64]*model.SpawnGroup)
	for rows.Next() {
		var (
			g      model.SpawnGroup
			weight int32
		)
		if err := rows.Scan(&g.ID, &g.ProfileID, &g.Name, &weight, &g.OverrideMutations); err != nil {
			return nil, fmt.Errorf("scanning spawn group row: %w", err)
		}
		g.Weight = int(weight)

		byID[g.ProfileID].Groups = append(byID[g.ProfileID].Groups, &g)
		groups[g.ID] = &g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spawn group rows: %w", err)
	}
	return groups, nil
}

// loadGroupChildren заполняет entries, условия и overrides мутаций группы.
func (r *SpawnConfigRepository) loadGroupChildren(ctx context.Context, groups map[int64]*model.SpawnGroup) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, creature_resref, relative_weight, min_count, max_count
		 FROM spawn_entries WHERE group_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("query spawn_entries: %w", err)
	}
	for rows.Next() {
		var (
			e                  model.SpawnEntry
			weight, minC, maxC int32
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.CreatureID, &weight, &minC, &maxC); err != nil {
			rows.Close()
			return fmt.Errorf("scanning spawn entry row: %w", err)
		}
		e.RelativeWeight, e.MinCount, e.MaxCount = int(weight), int(minC), int(maxC)
		groups[e.GroupID].Entries = append(groups[e.GroupID].Entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating spawn entry rows: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, group_id, condition_type, operator, value
		 FROM spawn_conditions WHERE group_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("query spawn_conditions: %w", err)
	}
	for rows.Next() {
		var c model.SpawnCondition
		if err := rows.Scan(&c.ID, &c.GroupID, &c.Type, &c.Operator, &c.Value); err != nil {
			rows.Close()
			return fmt.Errorf("scanning spawn condition row: %w", err)
		}
		groups[c.GroupID].Conditions = append(groups[c.GroupID].Conditions, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating spawn condition rows: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT group_id, template_id, chance_percent
		 FROM group_mutation_overrides WHERE group_id = ANY($1) ORDER BY group_id, template_id`, ids)
	if err != nil {
		return fmt.Errorf("query group_mutation_overrides: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o model.GroupMutationOverride
		if err := rows.Scan(&o.GroupID, &o.TemplateID, &o.ChancePercent); err != nil {
			return fmt.Errorf("scanning mutation override row: %w", err)
		}
		groups[o.GroupID].Overrides = append(groups[o.GroupID].Overrides, o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating mutation override rows: %w", err)
	}
	return nil
}

func (r *SpawnConfigRepository) loadMiniBosses(ctx context.Context, profileIDs []int64, byID map[int64]*model.SpawnProfile) (map[int64]*model.MiniBossConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, profile_id, creature_resref, chance_percent
		 FROM spawn_minibosses WHERE profile_id = ANY($1)`, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("query spawn_minibosses: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*model.MiniBossConfig)
	for rows.Next() {
		var mb model.MiniBossConfig
		if err := rows.Scan(&mb.ID, &mb.ProfileID, &mb.CreatureID, &mb.ChancePercent); err != nil {
			return nil, fmt.Errorf("scanning miniboss row: %w", err)
		}
		byID[mb.ProfileID].MiniBoss = &mb
		out[mb.ID] = &mb
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating miniboss rows: %w", err)
	}
	return out, nil
}

func (r *SpawnConfigRepository) loadBonuses(ctx context.Context, profileIDs []int64, byID map[int64]*model.SpawnProfile, miniBosses map[int64]*model.MiniBossConfig) error {
	mbIDs := make([]int64, 0, len(miniBosses))
	for id := range miniBosses {
		mbIDs = append(mbIDs, id)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, profile_id, miniboss_id, name, bonus_type, magnitude, duration_seconds, active
		 FROM spawn_bonuses
		 WHERE profile_id = ANY($1) OR miniboss_id = ANY($2)
		 ORDER BY id`, profileIDs, mbIDs)
	if err != nil {
		return fmt.Errorf("query spawn_bonuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b                   model.SpawnBonus
			profileID, mbID     *int64
			bonusType           string
			magnitude, duration int32
		)
		if err := rows.Scan(&b.ID, &profileID, &mbID, &b.Name, &bonusType, &magnitude, &duration, &b.Active); err != nil {
			return fmt.Errorf("scanning spawn bonus row: %w", err)
		}

		t, err := model.ParseBonusType(bonusType)
		if err != nil {
			slog.Warn("skipping spawn bonus", "bonus", b.ID, "error", err)
			continue
		}
		b.Type = t
		b.Magnitude = int(magnitude)
		b.Duration = seconds(duration)

		switch {
		case profileID != nil:
			b.Owner = model.ProfileOwner{ProfileID: *profileID}
			byID[*profileID].Bonuses = append(byID[*profileID].Bonuses, b)
		case mbID != nil:
			b.Owner = model.MiniBossOwner{MiniBossID: *mbID}
			miniBosses[*mbID].Bonuses = append(miniBosses[*mbID].Bonuses, b)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating spawn bonus rows: %w", err)
	}
	return nil
}

// LoadMutationTemplates loads the mutation catalog in creation order,
// effects in ordinal order.
func (r *SpawnConfigRepository) LoadMutationTemplates(ctx context.Context) ([]*model.MutationTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name_prefix, description, chance_percent, active, created_at
		 FROM mutation_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query mutation_templates: %w", err)
	}

	var templates []*model.MutationTemplate
	byID := make(map[int64]*model.MutationTemplate)
	for rows.Next() {
		var t model.MutationTemplate
		if err := rows.Scan(&t.ID, &t.NamePrefix, &t.Description, &t.ChancePercent, &t.Active, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning mutation template row: %w", err)
		}
		templates = append(templates, &t)
		byID[t.ID] = &t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mutation template rows: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, template_id, effect_type, magnitude, qualifier, duration_seconds, active
		 FROM mutation_effects ORDER BY template_id, ordinal, id`)
	if err != nil {
		return nil, fmt.Errorf("query mutation_effects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                   model.MutationEffect
			templateID          int64
			kind, qualifier     string
			magnitude, duration int32
		)
		if err := rows.Scan(&e.ID, &templateID, &kind, &magnitude, &qualifier, &duration, &e.Active); err != nil {
			return nil, fmt.Errorf("scanning mutation effect row: %w", err)
		}

		effect, err := model.NewEffect(kind, int(magnitude), qualifier)
		if err != nil {
			slog.Warn("skipping mutation effect", "effect", e.ID, "template", templateID, "error", err)
			continue
		}
		e.Effect = effect
		e.Duration = seconds(duration)

		if t, ok := byID[templateID]; ok {
			t.Effects = append(t.Effects, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mutation effect rows: %w", err)
	}

	return templates, nil
}

func seconds(s int32) time.Duration {
	return time.Duration(s) * time.Second
}
