package model

import (
	"fmt"
	"time"
)

// InstanceID identifies a creature instantiated by the CreatureSpawner.
type InstanceID uint32

// SpawnProfile is the per-area spawn configuration root.
// Read-only once loaded; reloads replace the whole profile.
type SpawnProfile struct {
	ID           int64
	AreaResRef   string
	Name         string
	Active       bool
	Cooldown     time.Duration
	DespawnAfter time.Duration // 0 = creatures stay until killed

	// MaxTotalSpawns caps concurrently active creatures owned by the profile.
	// 0 means no cap.
	MaxTotalSpawns int

	MiniBoss *MiniBossConfig
	Groups   []*SpawnGroup
	Bonuses  []SpawnBonus
}

// HasCap reports whether the profile limits concurrently active spawns.
func (p *SpawnProfile) HasCap() bool {
	return p.MaxTotalSpawns > 0
}

// ActiveBonuses returns profile-level bonuses that are switched on.
func (p *SpawnProfile) ActiveBonuses() []SpawnBonus {
	return activeBonuses(p.Bonuses)
}

// SpawnGroup is a weighted, condition-gated bundle of creature entries.
type SpawnGroup struct {
	ID                int64
	ProfileID         int64
	Name              string
	Weight            int
	OverrideMutations bool

	Entries    []SpawnEntry
	Conditions []SpawnCondition
	Overrides  []GroupMutationOverride
}

// Override returns the group's chance override for a mutation template.
func (g *SpawnGroup) Override(templateID int64) (GroupMutationOverride, bool) {
	for _, o := range g.Overrides {
		if o.TemplateID == templateID {
			return o, true
		}
	}
	return GroupMutationOverride{}, false
}

// SpawnEntry is one creature type plus its spawn-count range within a group.
type SpawnEntry struct {
	ID             int64
	GroupID        int64
	CreatureID     string
	RelativeWeight int
	MinCount       int
	MaxCount       int
}

// Validate checks the entry invariants: MinCount >= 1 and MaxCount >= MinCount.
func (e SpawnEntry) Validate() error {
	if e.CreatureID == "" {
		return fmt.Errorf("entry %d: empty creature id: %w", e.ID, ErrInvalidConfig)
	}
	if e.RelativeWeight < 0 {
		return fmt.Errorf("entry %d: negative weight %d: %w", e.ID, e.RelativeWeight, ErrInvalidConfig)
	}
	if e.MinCount < 1 {
		return fmt.Errorf("entry %d: min_count %d < 1: %w", e.ID, e.MinCount, ErrInvalidConfig)
	}
	if e.MaxCount < e.MinCount {
		return fmt.Errorf("entry %d: max_count %d < min_count %d: %w", e.ID, e.MaxCount, e.MinCount, ErrInvalidConfig)
	}
	return nil
}

// SpawnCondition is a raw gating condition as authored.
// Compiled into condition.Condition at load time.
type SpawnCondition struct {
	ID       int64
	GroupID  int64
	Type     string
	Operator string
	Value    string
}

// MiniBossConfig is the optional rare creature that may accompany a wave.
type MiniBossConfig struct {
	ID            int64
	ProfileID     int64
	CreatureID    string
	ChancePercent float64
	Bonuses       []SpawnBonus
}

// ActiveBonuses returns miniboss bonuses that are switched on.
func (m *MiniBossConfig) ActiveBonuses() []SpawnBonus {
	return activeBonuses(m.Bonuses)
}

// Validate checks creature id and chance range.
func (m *MiniBossConfig) Validate() error {
	if m.CreatureID == "" {
		return fmt.Errorf("miniboss %d: empty creature id: %w", m.ID, ErrInvalidConfig)
	}
	if m.ChancePercent < 0 || m.ChancePercent > 100 {
		return fmt.Errorf("miniboss %d: chance %.2f outside [0, 100]: %w", m.ID, m.ChancePercent, ErrInvalidConfig)
	}
	return nil
}

// GroupMutationOverride replaces a template's global chance for one group.
type GroupMutationOverride struct {
	GroupID       int64
	TemplateID    int64
	ChancePercent float64
}

func activeBonuses(all []SpawnBonus) []SpawnBonus {
	var out []SpawnBonus
	for _, b := range all {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}
