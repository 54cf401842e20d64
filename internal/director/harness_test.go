package director

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/spawndirector/internal/condition"
	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/spawn"
	"github.com/udisondev/spawndirector/internal/testutil"
	"github.com/udisondev/spawndirector/internal/world"
)

const waitFor = 2 * time.Second

type harness struct {
	d       *Director
	repo    *testutil.MockRepository
	world   *world.World
	spawner *world.Spawner
	clock   *clock.Mock
}

// newHarness starts a director over an in-process world with a mock clock.
// spawner overrides the world spawner when non-nil.
func newHarness(t *testing.T, opts Options, spawner spawn.CreatureSpawner, profiles ...*model.SpawnProfile) *harness {
	t.Helper()

	h := &harness{
		repo:  testutil.NewMockRepository(profiles...),
		world: world.New(),
		clock: clock.NewMock(),
	}
	h.spawner = world.NewSpawner(h.world, h.clock)
	if spawner == nil {
		spawner = h.spawner
	}

	opts.Clock = h.clock
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	h.d = New(h.repo, spawner, world.NewContextProvider(h.world, h.clock, world.DefaultBands(), nil), opts)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()

	ctx, cancel := testutil.ContextWithCancel(t)
	done := make(chan error, 1)
	go func() { done <- h.d.Start(ctx) }()

	select {
	case <-h.d.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("director exited before ready: %v", err)
	case <-time.After(waitFor):
		cancel()
		t.Fatal("director not ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start() returned %v", err)
			}
		case <-time.After(waitFor):
			t.Error("director did not stop")
		}
	})
}

func startHarness(t *testing.T, opts Options, profiles ...*model.SpawnProfile) *harness {
	t.Helper()
	h := newHarness(t, opts, nil, profiles...)
	h.start(t)
	return h
}

func (h *harness) snapshot(area string) condition.Context {
	return condition.Context{AreaResRef: area, Now: h.clock.Now()}
}

func (h *harness) opportunity(t *testing.T, area string) Result {
	t.Helper()
	res, err := h.d.OnSchedulingOpportunity(testutil.ContextWithTimeout(t, waitFor), area, h.snapshot(area))
	require.NoError(t, err)
	return res
}

func (h *harness) status(t *testing.T, area string) Status {
	t.Helper()
	s, err := h.d.Status(testutil.ContextWithTimeout(t, waitFor), area)
	require.NoError(t, err)
	return s
}

// creatures returns live creatures of an area in no particular order.
func (h *harness) creatures(area string) []*world.Creature {
	var out []*world.Creature
	h.world.ForEachCreature(func(c *world.Creature) bool {
		if c.AreaResRef == area {
			out = append(out, c)
		}
		return true
	})
	return out
}

// duplicateSpawner reports the same instance id for every creature, which
// the scheduler can only see as corrupted bookkeeping.
type duplicateSpawner struct{}

func (duplicateSpawner) Spawn(_ context.Context, descriptors []spawn.Descriptor) (spawn.Result, error) {
	res := spawn.Result{Outcomes: make([]spawn.Outcome, len(descriptors))}
	for i := range res.Outcomes {
		res.Outcomes[i].InstanceID = 42
	}
	return res, nil
}

func (duplicateSpawner) Despawn(context.Context, model.InstanceID) error {
	return nil
}

// lyingSpawner spawns through the world but, on submission number dupOn,
// reports the first instance id for every creature of the wave.
type lyingSpawner struct {
	*world.Spawner
	dupOn int32
	calls atomic.Int32
}

func (s *lyingSpawner) Spawn(ctx context.Context, descriptors []spawn.Descriptor) (spawn.Result, error) {
	res, err := s.Spawner.Spawn(ctx, descriptors)
	if err != nil || s.calls.Add(1) != s.dupOn || len(res.Outcomes) == 0 {
		return res, err
	}
	for i := range res.Outcomes {
		res.Outcomes[i].InstanceID = res.Outcomes[0].InstanceID
	}
	return res, nil
}

// despawnRecorder counts despawns per instance and spawns nothing.
type despawnRecorder struct {
	mu       sync.Mutex
	despawns map[model.InstanceID]int
}

func (r *despawnRecorder) Spawn(context.Context, []spawn.Descriptor) (spawn.Result, error) {
	return spawn.Result{}, nil
}

func (r *despawnRecorder) Despawn(_ context.Context, id model.InstanceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.despawns == nil {
		r.despawns = make(map[model.InstanceID]int)
	}
	r.despawns[id]++
	return nil
}

func (r *despawnRecorder) counts() map[model.InstanceID]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.InstanceID]int, len(r.despawns))
	for id, n := range r.despawns {
		out[id] = n
	}
	return out
}

// fixedProfile is a profile with one group spawning exactly n of creature.
func fixedProfile(id int64, area, creature string, n int) *model.SpawnProfile {
	p := testutil.NewProfile(id, area)
	p.Groups = []*model.SpawnGroup{
		testutil.NewGroup(id*10, "main", 1, testutil.NewEntry(id*100, creature, n, n)),
	}
	return p
}
