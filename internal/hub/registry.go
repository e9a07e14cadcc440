package hub

import (
	"sync"

	"github.com/harmonyhub/sync-backend/internal/logger"
	"github.com/harmonyhub/sync-backend/internal/room"
)

// Registry maps room identifiers to rooms. It carries its own mutex,
// separate from any room's mutex, taken only for map access — per spec
// §5/§9 it must never be held while a room handler runs.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

// NewRegistry constructs an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room.Room)}
}

// GetOrCreate returns the room with the given id, creating an Idle room
// if absent (spec §4.3).
func (reg *Registry) GetOrCreate(id string, nowMs int64) *room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[id]; ok {
		return r
	}

	r := room.New(id, nowMs)
	reg.rooms[id] = r
	logger.Log.Info("room created", "roomId", id)
	return r
}

// Get looks up a room by id without creating one.
func (reg *Registry) Get(id string) (*room.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[id]
	return r, ok
}

// DropIfEmpty removes room id from the registry if the caller has
// already determined (via the room's own lock) that its member count is
// zero. Passing the count as a precomputed value keeps this call from
// ever needing to touch the room's mutex while holding the registry's.
func (reg *Registry) DropIfEmpty(id string, memberCount int) {
	if memberCount != 0 {
		return
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.rooms[id]; !ok {
		return
	}

	delete(reg.rooms, id)
	logger.Log.Info("room destroyed", "roomId", id)
}
