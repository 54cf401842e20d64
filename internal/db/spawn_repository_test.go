package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/testutil"
)

// SpawnRepositorySuite проверяет загрузку конфигурации спавна из PostgreSQL.
type SpawnRepositorySuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo *SpawnConfigRepository
	ctx  context.Context
}

func (s *SpawnRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	s.pool = testutil.SetupTestDB(s.T(), RunMigrations)
	s.repo = NewSpawnConfigRepository(s.pool)
}

func (s *SpawnRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx,
		`TRUNCATE spawn_profiles, mutation_templates RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *SpawnRepositorySuite) exec(sql string, args ...any) {
	s.T().Helper()
	_, err := s.pool.Exec(s.ctx, sql, args...)
	s.Require().NoError(err)
}

// seedOrcCamp creates profile 1 (orc_camp) with one group, two entries,
// a condition, a miniboss, bonuses on both owners and one override.
func (s *SpawnRepositorySuite) seedOrcCamp() {
	s.exec(`INSERT INTO spawn_profiles (id, area_resref, name, active, cooldown_seconds, despawn_seconds, max_total_spawns)
	        VALUES (1, 'orc_camp', 'Orc camp', TRUE, 60, 300, 5)`)
	s.exec(`INSERT INTO spawn_groups (id, profile_id, name, weight, override_mutations)
	        VALUES (10, 1, 'orcs', 3, TRUE)`)
	s.exec(`INSERT INTO spawn_entries (id, group_id, creature_resref, relative_weight, min_count, max_count)
	        VALUES (100, 10, 'orc', 1, 2, 4), (101, 10, 'orc_shaman', 1, 1, 1)`)
	s.exec(`INSERT INTO spawn_conditions (id, group_id, condition_type, operator, value)
	        VALUES (1000, 10, 'time_of_day', 'in', '20,21,22')`)
	s.exec(`INSERT INTO spawn_minibosses (id, profile_id, creature_resref, chance_percent)
	        VALUES (7, 1, 'orc_warlord', 12.5)`)
	s.exec(`INSERT INTO spawn_bonuses (profile_id, miniboss_id, name, bonus_type, magnitude, duration_seconds, active)
	        VALUES (1, NULL, 'war drums', 'haste', 1, 0, TRUE),
	               (NULL, 7, 'warlord hide', 'armor', 4, 120, TRUE),
	               (1, NULL, 'broken', 'flying', 1, 0, TRUE)`)
	s.exec(`INSERT INTO mutation_templates (id, name_prefix, chance_percent, active, created_at)
	        VALUES (1, 'Frenzied', 20, TRUE, '2024-01-01T00:00:00Z')`)
	s.exec(`INSERT INTO group_mutation_overrides (group_id, template_id, chance_percent)
	        VALUES (10, 1, 75)`)
}

func (s *SpawnRepositorySuite) TestLoadProfile_FullTree() {
	s.seedOrcCamp()

	p, err := s.repo.LoadProfile(s.ctx, "orc_camp")
	s.Require().NoError(err)
	s.Require().NotNil(p)

	s.Equal("Orc camp", p.Name)
	s.True(p.Active)
	s.Equal(60*time.Second, p.Cooldown)
	s.Equal(300*time.Second, p.DespawnAfter)
	s.Equal(5, p.MaxTotalSpawns)

	s.Require().Len(p.Groups, 1)
	g := p.Groups[0]
	s.Equal("orcs", g.Name)
	s.Equal(3, g.Weight)
	s.True(g.OverrideMutations)
	s.Require().Len(g.Entries, 2)
	s.Equal("orc", g.Entries[0].CreatureID)
	s.Equal(2, g.Entries[0].MinCount)
	s.Equal(4, g.Entries[0].MaxCount)
	s.Require().Len(g.Conditions, 1)
	s.Equal(model.SpawnCondition{ID: 1000, GroupID: 10, Type: "time_of_day", Operator: "in", Value: "20,21,22"}, g.Conditions[0])

	o, ok := g.Override(1)
	s.Require().True(ok)
	s.InDelta(75.0, o.ChancePercent, 0.001)

	s.Require().NotNil(p.MiniBoss)
	s.Equal("orc_warlord", p.MiniBoss.CreatureID)
	s.InDelta(12.5, p.MiniBoss.ChancePercent, 0.001)

	// unknown bonus type is skipped
	s.Require().Len(p.Bonuses, 1)
	s.Equal(model.BonusHaste, p.Bonuses[0].Type)
	s.Equal(model.ProfileOwner{ProfileID: 1}, p.Bonuses[0].Owner)
	s.True(p.Bonuses[0].Permanent())

	s.Require().Len(p.MiniBoss.Bonuses, 1)
	s.Equal(model.MiniBossOwner{MiniBossID: 7}, p.MiniBoss.Bonuses[0].Owner)
	s.Equal(120*time.Second, p.MiniBoss.Bonuses[0].Duration)
}

func (s *SpawnRepositorySuite) TestLoadProfile_Missing() {
	p, err := s.repo.LoadProfile(s.ctx, "nowhere")
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *SpawnRepositorySuite) TestLoadActiveProfiles() {
	s.seedOrcCamp()
	s.exec(`INSERT INTO spawn_profiles (id, area_resref, active) VALUES (2, 'crypt', FALSE), (3, 'beach', TRUE)`)

	profiles, err := s.repo.LoadActiveProfiles(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(profiles, 2)
	s.Equal("beach", profiles[0].AreaResRef)
	s.Equal("orc_camp", profiles[1].AreaResRef)
	s.Empty(profiles[0].Groups)
	s.Nil(profiles[0].MiniBoss)
}

func (s *SpawnRepositorySuite) TestLoadMutationTemplates_Ordered() {
	s.exec(`INSERT INTO mutation_templates (id, name_prefix, chance_percent, active, created_at)
	        VALUES (2, 'Venomous', 10, TRUE, '2024-02-01T00:00:00Z'),
	               (1, 'Frenzied', 20, TRUE, '2024-01-01T00:00:00Z'),
	               (3, 'Hollow', 5, FALSE, '2024-03-01T00:00:00Z')`)
	s.exec(`INSERT INTO mutation_effects (template_id, ordinal, effect_type, magnitude, qualifier, duration_seconds, active)
	        VALUES (1, 1, 'speed', 25, '', 0, TRUE),
	               (1, 0, 'ability', 2, 'str', 0, TRUE),
	               (2, 0, 'damage', 3, 'acid', 30, TRUE),
	               (2, 1, 'teleport', 1, '', 0, TRUE)`)

	templates, err := s.repo.LoadMutationTemplates(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(templates, 3)

	s.Equal("Frenzied", templates[0].NamePrefix)
	s.Equal("Venomous", templates[1].NamePrefix)
	s.False(templates[2].Active)

	s.Require().Len(templates[0].Effects, 2)
	s.Equal(model.AbilityBonus{Ability: model.AbilityStr, Amount: 2}, templates[0].Effects[0].Effect)
	s.Equal(model.SpeedBonus{Percent: 25}, templates[0].Effects[1].Effect)

	// unknown effect kind is skipped
	s.Require().Len(templates[1].Effects, 1)
	s.Equal(model.DamageBonus{DamageType: model.DamageAcid, Amount: 3}, templates[1].Effects[0].Effect)
	s.Equal(30*time.Second, templates[1].Effects[0].Duration)
}

func (s *SpawnRepositorySuite) TestSchemaRejectsInvalidRows() {
	s.exec(`INSERT INTO spawn_profiles (id, area_resref) VALUES (1, 'orc_camp')`)
	s.exec(`INSERT INTO spawn_groups (id, profile_id, name) VALUES (10, 1, 'orcs')`)

	_, err := s.pool.Exec(s.ctx,
		`INSERT INTO spawn_entries (group_id, creature_resref, min_count, max_count) VALUES (10, 'orc', 3, 2)`)
	s.Error(err, "max_count < min_count must be rejected")

	_, err = s.pool.Exec(s.ctx,
		`INSERT INTO spawn_bonuses (name, bonus_type) VALUES ('orphan', 'haste')`)
	s.Error(err, "bonus without owner must be rejected")
}

func TestSpawnRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	suite.Run(t, new(SpawnRepositorySuite))
}
