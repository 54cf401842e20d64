// Package spawn defines the boundary between the director and the world:
// what a spawn request looks like and the collaborators that serve it.
package spawn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/spawndirector/internal/condition"
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/mutation"
)

// ConfigRepository loads spawn configuration.
type ConfigRepository interface {
	// LoadProfile returns the profile for an area, or nil, nil when none exists.
	LoadProfile(ctx context.Context, areaResRef string) (*model.SpawnProfile, error)
	LoadActiveProfiles(ctx context.Context) ([]*model.SpawnProfile, error)
	LoadMutationTemplates(ctx context.Context) ([]*model.MutationTemplate, error)
}

// CreatureSpawner instantiates and removes creatures in the world.
type CreatureSpawner interface {
	// Spawn submits a wave. A non-nil error means the submission itself was
	// refused; per-creature failures are reported in the result.
	Spawn(ctx context.Context, descriptors []Descriptor) (Result, error)
	// Despawn removes a creature. Removing a missing creature is a no-op.
	Despawn(ctx context.Context, id model.InstanceID) error
}

// ContextProvider snapshots the world state conditions are evaluated against.
type ContextProvider interface {
	Snapshot(ctx context.Context, areaResRef string) (condition.Context, error)
}

// Descriptor is everything the spawner needs to instantiate one creature.
type Descriptor struct {
	WaveID      uuid.UUID
	AreaResRef  string
	CreatureID  string
	MiniBoss    bool
	DisplayName string
	Mutations   []mutation.Application
	Modifiers   mutation.Composite
	Bonuses     []model.SpawnBonus
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s (%s)", d.AreaResRef, d.CreatureID, d.DisplayName)
}

// Outcome is the per-descriptor result of a submission.
type Outcome struct {
	InstanceID model.InstanceID
	Err        error
}

// OK reports whether the creature was instantiated.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result holds one Outcome per submitted descriptor, index-aligned.
type Result struct {
	Outcomes []Outcome
}

// Succeeded returns the instance ids of every instantiated creature.
func (r Result) Succeeded() []model.InstanceID {
	var ids []model.InstanceID
	for _, o := range r.Outcomes {
		if o.OK() {
			ids = append(ids, o.InstanceID)
		}
	}
	return ids
}

// Failed counts descriptors that were not instantiated, including any the
// spawner left without an outcome.
func (r Result) Failed(submitted int) int {
	n := 0
	for i := range submitted {
		if i >= len(r.Outcomes) || !r.Outcomes[i].OK() {
			n++
		}
	}
	return n
}
