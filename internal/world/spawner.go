package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/spawn"
)

// Spawner instantiates creature descriptors into a World.
type Spawner struct {
	world *World
	clock clock.Clock

	mu      sync.RWMutex
	failing map[string]error // creatureID → error returned for it
	refuse  error
}

// NewSpawner creates a spawner backed by w.
func NewSpawner(w *World, clk clock.Clock) *Spawner {
	return &Spawner{
		world:   w,
		clock:   clk,
		failing: make(map[string]error),
	}
}

// FailCreature makes every spawn of creatureID fail with err.
// A nil err clears the failure.
func (s *Spawner) FailCreature(creatureID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failing, creatureID)
		return
	}
	s.failing[creatureID] = err
}

// RefuseSubmissions makes whole submissions fail with err until cleared with nil.
func (s *Spawner) RefuseSubmissions(err error) {
	s.mu.Lock()
	s.refuse = err
	s.mu.Unlock()
}

// Spawn implements spawn.CreatureSpawner.
func (s *Spawner) Spawn(ctx context.Context, descriptors []spawn.Descriptor) (spawn.Result, error) {
	if err := ctx.Err(); err != nil {
		return spawn.Result{}, fmt.Errorf("spawning wave: %w", err)
	}

	s.mu.RLock()
	refuse := s.refuse
	s.mu.RUnlock()
	if refuse != nil {
		return spawn.Result{}, fmt.Errorf("spawning wave: %w", refuse)
	}

	now := s.clock.Now()
	res := spawn.Result{Outcomes: make([]spawn.Outcome, len(descriptors))}
	for i, d := range descriptors {
		s.mu.RLock()
		failure := s.failing[d.CreatureID]
		s.mu.RUnlock()
		if failure != nil {
			res.Outcomes[i].Err = fmt.Errorf("instantiating %s: %w", d.CreatureID, failure)
			continue
		}

		id := s.world.AddCreature(&Creature{
			WaveID:      d.WaveID,
			AreaResRef:  d.AreaResRef,
			CreatureID:  d.CreatureID,
			DisplayName: d.DisplayName,
			MiniBoss:    d.MiniBoss,
			Modifiers:   d.Modifiers,
			Bonuses:     d.Bonuses,
			SpawnedAt:   now,
		})
		res.Outcomes[i].InstanceID = id

		slog.Debug("creature spawned",
			"instance", id,
			"area", d.AreaResRef,
			"creature", d.CreatureID,
			"name", d.DisplayName,
			"miniboss", d.MiniBoss)
	}
	return res, nil
}

// Despawn implements spawn.CreatureSpawner. Missing creatures are ignored.
func (s *Spawner) Despawn(_ context.Context, id model.InstanceID) error {
	if s.world.RemoveCreature(id) {
		slog.Debug("creature removed", "instance", id)
	}
	return nil
}
