// Package scheduler tracks the spawn timing state of a single profile:
// cooldown, active creatures and per-creature despawn timers.
//
// A Scheduler is owned by exactly one profile worker and is not safe for
// concurrent use. Callers pass the current time explicitly.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/udisondev/spawndirector/internal/model"
)

// ErrRaceDetected reports bookkeeping that can only result from unserialised
// access, e.g. an active count going negative.
var ErrRaceDetected = errors.New("scheduler race detected")

// Phase is the observable scheduler state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCooling
	PhaseActive
	PhaseCoolingActive
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCooling:
		return "cooling"
	case PhaseActive:
		return "active"
	case PhaseCoolingActive:
		return "cooling+active"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Reason explains why a spawn is not eligible.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInactive
	ReasonCooling
	ReasonCapReached
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInactive:
		return "inactive"
	case ReasonCooling:
		return "cooling"
	case ReasonCapReached:
		return "cap_reached"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Config holds the profile timing parameters.
type Config struct {
	Cooldown     time.Duration
	DespawnAfter time.Duration // 0 disables despawn timers
	MaxTotal     int           // 0 = no cap
}

// AfterFunc arms a one-shot timer. Timers are fire-and-forget.
type AfterFunc func(d time.Duration, f func())

// Scheduler is the per-profile state machine.
type Scheduler struct {
	cfg       Config
	afterFunc AfterFunc
	onDue     func(model.InstanceID)

	lastSpawn time.Time
	spawned   bool

	active map[model.InstanceID]time.Time // instance -> spawn time
	count  int
}

// New creates a scheduler. onDue is called from the timer goroutine when a
// creature's despawn timer fires; it must hand off to the owning worker.
func New(cfg Config, afterFunc AfterFunc, onDue func(model.InstanceID)) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		afterFunc: afterFunc,
		onDue:     onDue,
		active:    make(map[model.InstanceID]time.Time),
	}
}

// Reconfigure replaces timing parameters, keeping cooldown and active state.
func (s *Scheduler) Reconfigure(cfg Config) {
	s.cfg = cfg
}

// Adopt takes over the cooldown and the tracked instances of prev, whose
// creatures are still in the world with their despawn timers armed.
// The active count is rebuilt from the tracked set, so a count that drifted
// in prev does not carry over.
func (s *Scheduler) Adopt(prev *Scheduler) {
	if prev == nil {
		return
	}
	s.lastSpawn = prev.lastSpawn
	s.spawned = prev.spawned
	s.active = make(map[model.InstanceID]time.Time, len(prev.active))
	for id, at := range prev.active {
		s.active[id] = at
	}
	s.count = len(s.active)
}

// Config returns the current timing parameters.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// CooldownRemaining returns how long until a new spawn is permitted.
func (s *Scheduler) CooldownRemaining(now time.Time) time.Duration {
	if !s.spawned {
		return 0
	}
	left := s.cfg.Cooldown - now.Sub(s.lastSpawn)
	if left < 0 {
		return 0
	}
	return left
}

// Eligible reports whether a new wave may be attempted.
// eligible = profileActive AND cooldown elapsed AND (no cap OR active < cap)
func (s *Scheduler) Eligible(now time.Time, profileActive bool) (bool, Reason) {
	if !profileActive {
		return false, ReasonInactive
	}
	if s.CooldownRemaining(now) > 0 {
		return false, ReasonCooling
	}
	if s.cfg.MaxTotal > 0 && s.count >= s.cfg.MaxTotal {
		return false, ReasonCapReached
	}
	return true, ReasonNone
}

// Capacity returns how many more creatures fit under the cap, or -1 when
// the profile is uncapped.
func (s *Scheduler) Capacity() int {
	if s.cfg.MaxTotal <= 0 {
		return -1
	}
	return max(s.cfg.MaxTotal-s.count, 0)
}

// Commit records an accepted wave: starts the cooldown, tracks every spawned
// instance and arms its despawn timer. It is called even when no instance
// was created, since the submitted wave still consumes the cooldown.
func (s *Scheduler) Commit(now time.Time, instances []model.InstanceID) error {
	s.lastSpawn = now
	s.spawned = true

	for _, id := range instances {
		if _, dup := s.active[id]; dup {
			return fmt.Errorf("instance %d committed twice: %w", id, ErrRaceDetected)
		}
		s.active[id] = now
		s.count++
		s.armDespawn(id)
	}
	return nil
}

func (s *Scheduler) armDespawn(id model.InstanceID) {
	if s.cfg.DespawnAfter <= 0 || s.afterFunc == nil {
		return
	}
	onDue := s.onDue
	s.afterFunc(s.cfg.DespawnAfter, func() {
		if onDue != nil {
			onDue(id)
		}
	})
}

// Release stops tracking an instance after death or despawn.
// Untracked instances are a no-op (false, nil).
func (s *Scheduler) Release(id model.InstanceID) (bool, error) {
	if _, ok := s.active[id]; !ok {
		return false, nil
	}
	delete(s.active, id)
	s.count--
	if s.count < 0 || s.count != len(s.active) {
		return true, fmt.Errorf("active count %d, tracked %d: %w", s.count, len(s.active), ErrRaceDetected)
	}
	return true, nil
}

// Tracked reports whether an instance is counted as active.
func (s *Scheduler) Tracked(id model.InstanceID) bool {
	_, ok := s.active[id]
	return ok
}

// ActiveCount returns the number of live creatures owned by the profile.
func (s *Scheduler) ActiveCount() int {
	return s.count
}

// Phase returns the state-machine phase at now.
func (s *Scheduler) Phase(now time.Time) Phase {
	cooling := s.CooldownRemaining(now) > 0
	switch {
	case cooling && s.count > 0:
		return PhaseCoolingActive
	case cooling:
		return PhaseCooling
	case s.count > 0:
		return PhaseActive
	default:
		return PhaseIdle
	}
}
