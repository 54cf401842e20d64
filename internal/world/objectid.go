package world

import (
	"sync/atomic"

	"github.com/udisondev/spawndirector/internal/model"
)

// creatureIDBase is the first id of the creature range.
// Ids below it are reserved for players and static objects.
const creatureIDBase model.InstanceID = 0x20000000

// ObjectIDGenerator выдаёт уникальные instance id существ.
type ObjectIDGenerator struct {
	next atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.next.Store(uint32(creatureIDBase))
	return gen
}

// NextCreatureID выдаёт следующий уникальный instance ID.
// Потокобезопасен (atomic increment).
func (g *ObjectIDGenerator) NextCreatureID() model.InstanceID {
	return model.InstanceID(g.next.Add(1))
}
