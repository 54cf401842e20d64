package director

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/spawndirector/internal/condition"
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/mutation"
	"github.com/udisondev/spawndirector/internal/random"
	"github.com/udisondev/spawndirector/internal/scheduler"
	"github.com/udisondev/spawndirector/internal/selector"
	"github.com/udisondev/spawndirector/internal/spawn"
	"github.com/udisondev/spawndirector/internal/wave"
)

type opportunityMsg struct {
	ctx      context.Context
	snapshot condition.Context
	reply    chan<- opportunityReply
}

type opportunityReply struct {
	result Result
	err    error
}

// releaseMsg stops tracking a creature. despawn is set for timer expiry,
// in which case the creature is also removed from the world.
type releaseMsg struct {
	id      model.InstanceID
	despawn bool
}

type reloadMsg struct {
	snap  *compiledProfile
	reply chan<- struct{}
}

type statusMsg struct {
	reply chan<- Status
}

// worker owns one profile's scheduler and compiled snapshot.
// Everything below the channels is touched only by the run goroutine.
type worker struct {
	area        string
	d           *Director
	inbox       chan any
	done        chan struct{}
	deactivated atomic.Bool
	retired     atomic.Bool // stopped for good, inbox is drained

	snap     *compiledProfile
	sched    *scheduler.Scheduler
	rng      random.Source
	restarts int
}

func newWorker(d *Director, snap *compiledProfile) *worker {
	w := &worker{
		area:  snap.profile.AreaResRef,
		d:     d,
		inbox: make(chan any, d.opts.InboxSize),
		done:  make(chan struct{}),
	}
	w.reset(snap)
	return w
}

// reset installs snap with a fresh scheduler and random source.
func (w *worker) reset(snap *compiledProfile) {
	w.snap = snap
	w.sched = scheduler.New(snap.schedulerConfig(), w.d.afterFunc, func(id model.InstanceID) {
		w.d.despawnDue(w.area, id)
	})
	w.rng = random.New(random.SeedFor(w.d.opts.Seed, fmt.Sprintf("%s#%d", w.area, w.restarts)))
}

// restart installs snap after a detected race. The cooldown and the tracked
// creatures carry over: they are still in the world and their despawn
// timers route back through this worker.
func (w *worker) restart(snap *compiledProfile) {
	prev := w.sched
	w.reset(snap)
	w.sched.Adopt(prev)
}

// post enqueues a message for the worker. A message that lands in the
// inbox after the worker stopped for good is drained here, so pending
// despawns are never stranded.
func (w *worker) post(ctx context.Context, m any) error {
	select {
	case <-w.done:
		return fmt.Errorf("area %s: %w", w.area, ErrWorkerStopped)
	default:
	}

	select {
	case w.inbox <- m:
	case <-w.done:
		return fmt.Errorf("area %s: %w", w.area, ErrWorkerStopped)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-w.done:
		if w.retired.Load() {
			w.drain()
		}
	default:
	}
	return nil
}

// run processes the inbox until ctx is cancelled or scheduler bookkeeping
// is found corrupt, in which case the error is returned.
func (w *worker) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-w.inbox:
			if err := w.handle(m); err != nil {
				return err
			}
		}
	}
}

// drain empties the inbox of a worker that stopped for good. Pending
// despawns are still carried out; everything else is dropped, its callers
// observe w.done.
func (w *worker) drain() {
	for {
		select {
		case m := <-w.inbox:
			if rel, ok := m.(releaseMsg); ok && rel.despawn {
				w.d.despawn(w.area, rel.id)
			}
		default:
			return
		}
	}
}

func (w *worker) handle(m any) error {
	switch msg := m.(type) {
	case opportunityMsg:
		res, err := w.opportunity(msg.ctx, msg.snapshot)
		msg.reply <- opportunityReply{result: res, err: err}
		if isRace(err) {
			return err
		}
	case releaseMsg:
		_, err := w.sched.Release(msg.id)
		if msg.despawn {
			w.d.despawn(w.area, msg.id)
		}
		if err != nil {
			return err
		}
	case reloadMsg:
		w.snap = msg.snap
		w.sched.Reconfigure(msg.snap.schedulerConfig())
		close(msg.reply)
	case statusMsg:
		msg.reply <- w.status()
	default:
		slog.Error("unexpected worker message", "area", w.area, "type", fmt.Sprintf("%T", m))
	}
	return nil
}

func (w *worker) status() Status {
	now := w.d.clock.Now()
	return Status{
		Area:              w.area,
		ProfileActive:     w.snap.profile.Active,
		Deactivated:       w.deactivated.Load(),
		Phase:             w.sched.Phase(now),
		ActiveCount:       w.sched.ActiveCount(),
		CooldownRemaining: w.sched.CooldownRemaining(now),
		Groups:            len(w.snap.groups),
		Restarts:          w.restarts,
	}
}

// opportunity runs one scheduling decision against the current snapshot.
func (w *worker) opportunity(ctx context.Context, snapshot condition.Context) (Result, error) {
	res := Result{Area: w.area}
	if w.deactivated.Load() {
		res.Outcome = OutcomeInactive
		return res, nil
	}

	now := w.d.clock.Now()
	if ok, reason := w.sched.Eligible(now, w.snap.profile.Active); !ok {
		res.Outcome = outcomeFor(reason)
		return res, nil
	}

	candidates := make([]selector.Weighted[*compiledGroup], 0, len(w.snap.groups))
	for _, g := range w.snap.groups {
		if condition.EvaluateAll(g.conditions, snapshot) {
			candidates = append(candidates, selector.Weighted[*compiledGroup]{Item: g, Weight: g.group.Weight})
		}
	}
	if len(candidates) == 0 {
		res.Outcome = OutcomeNoEligibleGroup
		return res, nil
	}

	chosen, ok := selector.Select(candidates, w.rng)
	if !ok {
		res.Outcome = OutcomeNoneSelected
		return res, nil
	}
	res.Group = chosen.group.Name

	wv := wave.Compose(chosen.group, w.snap.miniBoss, w.rng)
	if wv.Size() == 0 {
		res.Outcome = OutcomeEmptyWave
		return res, nil
	}

	if capacity := w.sched.Capacity(); capacity >= 0 && wv.Size() > capacity {
		if w.d.opts.CapPolicy != CapTruncate {
			slog.Debug("wave rejected by cap",
				"area", w.area,
				"group", res.Group,
				"size", wv.Size(),
				"capacity", capacity)
			res.Outcome = OutcomeCapRejected
			return res, nil
		}
		res.Truncated = wv.Size() - capacity
		wv = wv.Truncate(capacity)
	}
	res.MiniBoss = wv.HasMiniBoss

	res.WaveID = uuid.New()
	descriptors := w.describe(res.WaveID, chosen.group, wv)

	submitCtx, cancel := context.WithTimeout(ctx, w.d.opts.SubmitTimeout)
	defer cancel()
	spawned, err := w.d.spawner.Spawn(submitCtx, descriptors)
	if err != nil {
		return Result{Area: w.area}, fmt.Errorf("submitting wave %s for area %s: %w", res.WaveID, w.area, err)
	}

	for i, o := range spawned.Outcomes {
		if i < len(descriptors) && !o.OK() {
			slog.Warn("creature spawn failed",
				"area", w.area,
				"wave", res.WaveID,
				"creature", descriptors[i].CreatureID,
				"error", o.Err)
		}
	}
	res.Instances = spawned.Succeeded()
	res.Failed = spawned.Failed(len(descriptors))
	res.Outcome = OutcomeSpawned

	if err := w.sched.Commit(now, res.Instances); err != nil {
		return res, fmt.Errorf("committing wave %s for area %s: %w", res.WaveID, w.area, err)
	}

	slog.Info("wave spawned",
		"area", w.area,
		"wave", res.WaveID,
		"group", res.Group,
		"creatures", len(res.Instances),
		"failed", res.Failed,
		"truncated", res.Truncated,
		"miniboss", res.MiniBoss)

	return res, nil
}

// describe resolves mutations and bonuses for every creature of a wave.
func (w *worker) describe(waveID uuid.UUID, group *model.SpawnGroup, wv wave.Wave) []spawn.Descriptor {
	templates := w.d.activeTemplates()
	creatures := wv.Creatures()
	out := make([]spawn.Descriptor, 0, len(creatures))

	for _, c := range creatures {
		apps := w.d.resolver.ResolveForCreature(group, templates, w.rng)
		mods := mutation.Compose(c.CreatureID, apps)

		bonuses := w.snap.profileBonuses
		if c.MiniBoss {
			bonuses = w.snap.miniBossBonuses
		}

		out = append(out, spawn.Descriptor{
			WaveID:      waveID,
			AreaResRef:  w.area,
			CreatureID:  c.CreatureID,
			MiniBoss:    c.MiniBoss,
			DisplayName: mods.DisplayName,
			Mutations:   apps,
			Modifiers:   mods,
			Bonuses:     bonuses,
		})
	}
	return out
}
