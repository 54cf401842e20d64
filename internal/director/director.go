// Package director decides per area when a wave spawns, what it contains
// and which mutations its creatures carry.
//
// Each active profile is owned by one worker goroutine. Scheduling
// opportunities, death notifications and despawn timers are serialised
// through the worker's inbox, so cooldown and cap checks never race.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/spawndirector/internal/condition"
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/mutation"
	"github.com/udisondev/spawndirector/internal/scheduler"
	"github.com/udisondev/spawndirector/internal/spawn"
)

// Options tunes the director.
type Options struct {
	Clock            clock.Clock
	CapPolicy        CapPolicy
	PrefixOnEmptyHit bool
	Seed             uint64 // 0 = random per worker
	SubmitTimeout    time.Duration
	InboxSize        int
	MaxRestarts      int // 0 = default, negative = never restart
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		Clock:            clock.New(),
		CapPolicy:        CapReject,
		PrefixOnEmptyHit: true,
		SubmitTimeout:    5 * time.Second,
		InboxSize:        64,
		MaxRestarts:      3,
	}
}

// Director routes scheduling requests to per-profile workers.
type Director struct {
	repo     spawn.ConfigRepository
	spawner  spawn.CreatureSpawner
	world    spawn.ContextProvider
	opts     Options
	clock    clock.Clock
	resolver *mutation.Resolver

	templates atomic.Pointer[[]*model.MutationTemplate]

	mu      sync.RWMutex
	workers map[string]*worker
	group   *errgroup.Group
	runCtx  context.Context
	ready   chan struct{}
}

// New creates a director. Zero Clock, CapPolicy, SubmitTimeout, InboxSize
// and MaxRestarts fall back to DefaultOptions. PrefixOnEmptyHit and Seed are
// taken as given.
func New(repo spawn.ConfigRepository, spawner spawn.CreatureSpawner, world spawn.ContextProvider, opts Options) *Director {
	def := DefaultOptions()
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	if opts.CapPolicy == "" {
		opts.CapPolicy = def.CapPolicy
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = def.SubmitTimeout
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = def.InboxSize
	}
	switch {
	case opts.MaxRestarts == 0:
		opts.MaxRestarts = def.MaxRestarts
	case opts.MaxRestarts < 0:
		opts.MaxRestarts = 0
	}

	d := &Director{
		repo:     repo,
		spawner:  spawner,
		world:    world,
		opts:     opts,
		clock:    opts.Clock,
		resolver: mutation.NewResolver(opts.PrefixOnEmptyHit),
		workers:  make(map[string]*worker),
		ready:    make(chan struct{}),
	}
	empty := []*model.MutationTemplate{}
	d.templates.Store(&empty)
	return d
}

// Start loads mutation templates and active profiles, launches one worker
// per profile and blocks until ctx is cancelled.
func (d *Director) Start(ctx context.Context) error {
	if err := d.ReloadTemplates(ctx); err != nil {
		return err
	}

	profiles, err := d.repo.LoadActiveProfiles(ctx)
	if err != nil {
		return fmt.Errorf("loading active profiles: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	d.mu.Lock()
	if d.group != nil {
		d.mu.Unlock()
		return errors.New("director already started")
	}
	d.group, d.runCtx = g, gctx
	launched := 0
	for _, p := range profiles {
		if err := d.launchLocked(p); err != nil {
			slog.Error("profile not started", "error", err)
			continue
		}
		launched++
	}
	d.mu.Unlock()
	close(d.ready)

	slog.Info("spawn director started",
		"profiles", launched,
		"cap_policy", d.opts.CapPolicy,
		"prefix_on_empty_hit", d.opts.PrefixOnEmptyHit)

	<-gctx.Done()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stopping profile workers: %w", err)
	}

	slog.Info("spawn director stopped")
	return nil
}

// Ready is closed once Start has launched the initial workers.
func (d *Director) Ready() <-chan struct{} {
	return d.ready
}

// launchLocked compiles p and starts its worker. d.mu must be held.
func (d *Director) launchLocked(p *model.SpawnProfile) error {
	snap, problems := compileProfile(p)
	if snap == nil {
		return errors.Join(problems...)
	}
	logProblems("spawn configuration rejected", problems)

	if _, exists := d.workers[snap.profile.AreaResRef]; exists {
		return fmt.Errorf("area %s: duplicate profile %d: %w", snap.profile.AreaResRef, snap.profile.ID, model.ErrInvalidConfig)
	}

	w := newWorker(d, snap)
	d.workers[w.area] = w
	d.group.Go(func() error {
		d.supervise(d.runCtx, w)
		return nil
	})

	slog.Info("profile worker started",
		"area", w.area,
		"profile", snap.profile.Name,
		"groups", len(snap.groups),
		"cooldown", snap.profile.Cooldown,
		"max_total", snap.profile.MaxTotalSpawns)
	return nil
}

// supervise runs w and restarts it after a detected race, reloading its
// profile and keeping its scheduling state, until ctx is cancelled or the
// restart budget is spent.
// Failures never propagate to other workers.
func (d *Director) supervise(ctx context.Context, w *worker) {
	for {
		err := w.run(ctx)
		if err == nil {
			close(w.done)
			return
		}

		if w.restarts >= d.opts.MaxRestarts {
			slog.Error("profile worker stopped", "area", w.area, "restarts", w.restarts, "error", err)
			d.retire(w)
			return
		}

		w.restarts++
		snap := w.snap
		if p, lerr := d.repo.LoadProfile(ctx, w.area); lerr != nil {
			slog.Warn("reloading profile for restart failed, keeping snapshot", "area", w.area, "error", lerr)
		} else if p != nil {
			if fresh, problems := compileProfile(p); fresh != nil {
				logProblems("spawn configuration rejected", problems)
				snap = fresh
			}
		}
		w.restart(snap)

		slog.Warn("profile worker restarted", "area", w.area, "restarts", w.restarts, "error", err)
	}
}

// retire removes w for good and carries out the despawns still queued to it.
func (d *Director) retire(w *worker) {
	d.mu.Lock()
	if d.workers[w.area] == w {
		delete(d.workers, w.area)
	}
	d.mu.Unlock()

	w.retired.Store(true)
	close(w.done)
	w.drain()
}

func (d *Director) worker(area string) *worker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.workers[area]
}

func (d *Director) started() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.group != nil
}

// Areas returns the areas with a running worker, sorted.
func (d *Director) Areas() []string {
	d.mu.RLock()
	areas := make([]string, 0, len(d.workers))
	for area := range d.workers {
		areas = append(areas, area)
	}
	d.mu.RUnlock()
	slices.Sort(areas)
	return areas
}

// OnSchedulingOpportunity asks the area's worker whether to spawn a wave now.
// Outcomes other than OutcomeSpawned are not errors.
func (d *Director) OnSchedulingOpportunity(ctx context.Context, area string, snapshot condition.Context) (Result, error) {
	w := d.worker(area)
	if w == nil {
		return Result{Area: area}, fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
	}
	if w.deactivated.Load() {
		return Result{Area: area, Outcome: OutcomeInactive}, nil
	}

	if snapshot.AreaResRef == "" {
		snapshot.AreaResRef = area
	}

	reply := make(chan opportunityReply, 1)
	if err := w.post(ctx, opportunityMsg{ctx: ctx, snapshot: snapshot, reply: reply}); err != nil {
		return Result{Area: area}, err
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-w.done:
		return Result{Area: area}, fmt.Errorf("area %s: %w", area, ErrWorkerStopped)
	case <-ctx.Done():
		return Result{Area: area}, ctx.Err()
	}
}

// Tick offers one scheduling opportunity to every running, non-deactivated
// profile concurrently, using the world context provider for snapshots.
// Per-area failures are logged and left out of the result map.
func (d *Director) Tick(ctx context.Context) (map[string]Result, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]Result)
		g       errgroup.Group
	)

	for _, area := range d.Areas() {
		if w := d.worker(area); w == nil || w.deactivated.Load() {
			continue
		}
		g.Go(func() error {
			snap, err := d.world.Snapshot(ctx, area)
			if err != nil {
				slog.Warn("world snapshot failed", "area", area, "error", err)
				return nil
			}
			res, err := d.OnSchedulingOpportunity(ctx, area, snap)
			if err != nil {
				slog.Warn("scheduling opportunity failed", "area", area, "error", err)
				return nil
			}
			mu.Lock()
			results[area] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// NotifyRemoved tells the area's worker a creature left the world, e.g. died.
// Unknown instances are ignored.
func (d *Director) NotifyRemoved(ctx context.Context, area string, id model.InstanceID) error {
	w := d.worker(area)
	if w == nil {
		return fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
	}
	return w.post(ctx, releaseMsg{id: id})
}

// Deactivate stops the area from accepting new scheduling opportunities.
// Creatures already spawned stay, and their despawn timers keep running.
func (d *Director) Deactivate(area string) error {
	w := d.worker(area)
	if w == nil {
		return fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
	}
	if !w.deactivated.Swap(true) {
		slog.Info("profile deactivated", "area", area)
	}
	return nil
}

// Activate loads the area's profile and resumes scheduling for it, starting
// a worker if none is running. A profile disabled in configuration stays
// ineligible until its configuration is enabled.
func (d *Director) Activate(ctx context.Context, area string) error {
	removed, err := d.reload(ctx, area)
	if err != nil {
		return err
	}
	if removed {
		return fmt.Errorf("area %s: profile removed from configuration: %w", area, ErrUnknownProfile)
	}
	w := d.worker(area)
	if w == nil {
		return fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
	}
	if w.deactivated.Swap(false) {
		slog.Info("profile activated", "area", area)
	}
	return nil
}

// Reload replaces the area's compiled profile while keeping its scheduling
// state. A profile that no longer exists is deactivated; a newly active one
// gets a worker.
func (d *Director) Reload(ctx context.Context, area string) error {
	_, err := d.reload(ctx, area)
	return err
}

// reload reports removed when the area's profile no longer exists and its
// worker was deactivated instead.
func (d *Director) reload(ctx context.Context, area string) (removed bool, err error) {
	if !d.started() {
		return false, ErrNotStarted
	}

	p, err := d.repo.LoadProfile(ctx, area)
	if err != nil {
		return false, fmt.Errorf("loading profile for area %s: %w", area, err)
	}

	w := d.worker(area)
	if p == nil {
		if w == nil {
			return false, fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
		}
		slog.Warn("profile removed from configuration, deactivating", "area", area)
		return true, d.Deactivate(area)
	}

	if w == nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, raced := d.workers[area]; raced {
			return false, nil
		}
		return false, d.launchLocked(p)
	}

	snap, problems := compileProfile(p)
	if snap == nil {
		return false, errors.Join(problems...)
	}
	logProblems("spawn configuration rejected", problems)

	done := make(chan struct{})
	if err := w.post(ctx, reloadMsg{snap: snap, reply: done}); err != nil {
		return false, err
	}
	select {
	case <-done:
	case <-w.done:
		return false, fmt.Errorf("area %s: %w", area, ErrWorkerStopped)
	case <-ctx.Done():
		return false, ctx.Err()
	}

	slog.Info("profile reloaded", "area", area, "active", snap.profile.Active, "groups", len(snap.groups))
	return false, nil
}

// ReloadAll refreshes mutation templates and every profile: running ones
// are reloaded and newly active ones are started.
func (d *Director) ReloadAll(ctx context.Context) error {
	if err := d.ReloadTemplates(ctx); err != nil {
		return err
	}

	profiles, err := d.repo.LoadActiveProfiles(ctx)
	if err != nil {
		return fmt.Errorf("loading active profiles: %w", err)
	}

	areas := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		areas[p.AreaResRef] = struct{}{}
	}
	for _, area := range d.Areas() {
		areas[area] = struct{}{}
	}

	var errs []error
	for area := range areas {
		if err := d.Reload(ctx, area); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReloadTemplates swaps the mutation catalog used for new waves.
func (d *Director) ReloadTemplates(ctx context.Context) error {
	all, err := d.repo.LoadMutationTemplates(ctx)
	if err != nil {
		return fmt.Errorf("loading mutation templates: %w", err)
	}
	valid, problems := compileTemplates(all)
	logProblems("mutation template rejected", problems)

	active := mutation.ActiveTemplates(valid)
	d.templates.Store(&active)

	slog.Info("mutation templates loaded", "total", len(all), "active", len(active))
	return nil
}

func (d *Director) activeTemplates() []*model.MutationTemplate {
	return *d.templates.Load()
}

// Status reports the area's scheduling state.
func (d *Director) Status(ctx context.Context, area string) (Status, error) {
	w := d.worker(area)
	if w == nil {
		return Status{}, fmt.Errorf("area %s: %w", area, ErrUnknownProfile)
	}

	reply := make(chan Status, 1)
	if err := w.post(ctx, statusMsg{reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-w.done:
		return Status{}, fmt.Errorf("area %s: %w", area, ErrWorkerStopped)
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (d *Director) afterFunc(dur time.Duration, f func()) {
	d.clock.AfterFunc(dur, f)
}

// despawnDue is the despawn timer callback. It routes through the area's
// worker when one is running and despawns directly otherwise.
func (d *Director) despawnDue(area string, id model.InstanceID) {
	if w := d.worker(area); w != nil {
		if err := w.post(context.Background(), releaseMsg{id: id, despawn: true}); err == nil {
			return
		}
	}
	d.despawn(area, id)
}

func (d *Director) despawn(area string, id model.InstanceID) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.SubmitTimeout)
	defer cancel()

	if err := d.spawner.Despawn(ctx, id); err != nil {
		slog.Warn("despawn failed", "area", area, "instance", id, "error", err)
		return
	}
	slog.Debug("creature despawned", "area", area, "instance", id)
}

func isRace(err error) bool {
	return errors.Is(err, scheduler.ErrRaceDetected)
}
