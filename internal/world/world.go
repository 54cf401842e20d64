// Package world is the in-process creature registry the director spawns
// into, plus the player population and area flags conditions read.
package world

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/spawndirector/internal/model"
	"github.com/udisondev/spawndirector/internal/mutation"
)

// Creature is a spawned creature as the world sees it.
type Creature struct {
	InstanceID  model.InstanceID
	WaveID      uuid.UUID
	AreaResRef  string
	CreatureID  string
	DisplayName string
	MiniBoss    bool
	Modifiers   mutation.Composite
	Bonuses     []model.SpawnBonus
	SpawnedAt   time.Time
}

// World хранит живых существ, онлайн игроков и флаги областей.
type World struct {
	objects sync.Map // map[model.InstanceID]*Creature, lock-free чтение на горячем пути
	count   atomic.Int32

	mu          sync.RWMutex
	areaCounts  map[string]int
	population  int
	areaPlayers map[string]int
	flags       map[string]map[string]string

	ids *ObjectIDGenerator
}

// New creates an empty world.
func New() *World {
	return &World{
		areaCounts:  make(map[string]int),
		areaPlayers: make(map[string]int),
		flags:       make(map[string]map[string]string),
		ids:         NewObjectIDGenerator(),
	}
}

// AddCreature регистрирует существо под новым instance id.
func (w *World) AddCreature(c *Creature) model.InstanceID {
	c.InstanceID = w.ids.NextCreatureID()
	w.objects.Store(c.InstanceID, c)
	w.count.Add(1)

	w.mu.Lock()
	w.areaCounts[c.AreaResRef]++
	w.mu.Unlock()

	return c.InstanceID
}

// RemoveCreature удаляет существо из мира.
// Возвращает false если его уже нет (повторный despawn безопасен).
func (w *World) RemoveCreature(id model.InstanceID) bool {
	value, ok := w.objects.LoadAndDelete(id)
	if !ok {
		return false
	}
	c := value.(*Creature)
	w.count.Add(-1)

	w.mu.Lock()
	if w.areaCounts[c.AreaResRef]--; w.areaCounts[c.AreaResRef] <= 0 {
		delete(w.areaCounts, c.AreaResRef)
	}
	w.mu.Unlock()

	return true
}

// Creature returns a live creature by instance id.
func (w *World) Creature(id model.InstanceID) (*Creature, bool) {
	value, ok := w.objects.Load(id)
	if !ok {
		return nil, false
	}
	return value.(*Creature), true
}

// ForEachCreature вызывает fn для каждого живого существа, пока fn не вернёт false.
// Порядок обхода не определён.
func (w *World) ForEachCreature(fn func(*Creature) bool) {
	w.objects.Range(func(_, value any) bool {
		return fn(value.(*Creature))
	})
}

// CreatureCount returns the number of live creatures.
func (w *World) CreatureCount() int {
	return int(w.count.Load())
}

// AreaCreatureCount returns the number of live creatures in an area.
func (w *World) AreaCreatureCount(area string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.areaCounts[area]
}

// SetPopulation sets the server-wide online player count.
func (w *World) SetPopulation(n int) {
	w.mu.Lock()
	w.population = n
	w.mu.Unlock()
}

// Population returns the server-wide online player count.
func (w *World) Population() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.population
}

// SetAreaPlayers sets how many players are inside an area.
func (w *World) SetAreaPlayers(area string, n int) {
	w.mu.Lock()
	w.areaPlayers[area] = n
	w.mu.Unlock()
}

// AreaPlayers returns how many players are inside an area.
func (w *World) AreaPlayers(area string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.areaPlayers[area]
}

// SetFlag выставляет флаг области. Пустое значение снимает флаг.
func (w *World) SetFlag(area, name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if value == "" {
		delete(w.flags[area], name)
		return
	}
	if w.flags[area] == nil {
		w.flags[area] = make(map[string]string)
	}
	w.flags[area][name] = value
}

// Flags returns a copy of the area's flags.
func (w *World) Flags(area string) map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return maps.Clone(w.flags[area])
}
