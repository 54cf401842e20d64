package testutil

import (
	"time"

	"github.com/udisondev/spawndirector/internal/model"
)

// NewProfile создаёт активный профиль без групп: cooldown 60s, despawn 300s, без cap.
func NewProfile(id int64, area string) *model.SpawnProfile {
	return &model.SpawnProfile{
		ID:           id,
		AreaResRef:   area,
		Name:         area,
		Active:       true,
		Cooldown:     60 * time.Second,
		DespawnAfter: 300 * time.Second,
	}
}

// NewGroup создаёт группу с заданным весом и entries.
func NewGroup(id int64, name string, weight int, entries ...model.SpawnEntry) *model.SpawnGroup {
	for i := range entries {
		entries[i].GroupID = id
	}
	return &model.SpawnGroup{
		ID:      id,
		Name:    name,
		Weight:  weight,
		Entries: entries,
	}
}

// NewEntry создаёт entry с RelativeWeight 1 и диапазоном [minCount, maxCount].
func NewEntry(id int64, creatureID string, minCount, maxCount int) model.SpawnEntry {
	return model.SpawnEntry{
		ID:             id,
		CreatureID:     creatureID,
		RelativeWeight: 1,
		MinCount:       minCount,
		MaxCount:       maxCount,
	}
}

// OrcCamp: типовой профиль: одна группа orc 2..4, cooldown 60s, despawn 300s.
func OrcCamp() *model.SpawnProfile {
	p := NewProfile(1, "orc_camp")
	p.Name = "Orc camp"
	p.Groups = []*model.SpawnGroup{
		NewGroup(10, "orcs", 1, NewEntry(100, "orc", 2, 4)),
	}
	return p
}

// NewTemplate создаёт активный шаблон мутации с активными эффектами.
// createdAt задаёт порядок применения префиксов.
func NewTemplate(id int64, prefix string, chance float64, createdAt time.Time, effects ...model.Effect) *model.MutationTemplate {
	t := &model.MutationTemplate{
		ID:            id,
		NamePrefix:    prefix,
		ChancePercent: chance,
		Active:        true,
		CreatedAt:     createdAt,
	}
	for i, e := range effects {
		t.Effects = append(t.Effects, model.MutationEffect{
			ID:     id*100 + int64(i),
			Effect: e,
			Active: true,
		})
	}
	return t
}
