package core

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// room holds the identities present in one catalog room.
type room struct {
	name string

	// op serialises presence operations (mutate, snapshot, publish) on this room.
	op sync.Mutex

	mu      sync.RWMutex
	members map[string]struct{}
}

func newRoom(name string) *room {
	return &room{name: name, members: make(map[string]struct{})}
}

func (r *room) snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := lo.Keys(r.members)
	sort.Strings(users)
	return users
}

// Registry maps room names to their member sets. Rooms are registered up front
// and never removed.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates a registry seeded with the given room names.
func NewRegistry(names ...string) *Registry {
	reg := &Registry{rooms: make(map[string]*room, len(names))}
	for _, name := range names {
		reg.EnsureRoom(name)
	}
	return reg
}

// EnsureRoom registers name with an empty member set if it is not known yet.
func (g *Registry) EnsureRoom(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[name]; !ok {
		g.rooms[name] = newRoom(name)
	}
}

// Has reports whether the room is registered.
func (g *Registry) Has(name string) bool {
	_, err := g.get(name)
	return err == nil
}

// Rooms returns the registered room names in sorted order.
func (g *Registry) Rooms() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := lo.Keys(g.rooms)
	sort.Strings(names)
	return names
}

// AddMember adds identity to the room and returns the resulting roster.
func (g *Registry) AddMember(name, identity string) ([]string, error) {
	r, err := g.get(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.members[identity] = struct{}{}
	r.mu.Unlock()

	return r.snapshot(), nil
}

// RemoveMember removes identity from the room if present and returns the resulting roster.
func (g *Registry) RemoveMember(name, identity string) ([]string, error) {
	r, err := g.get(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	delete(r.members, identity)
	r.mu.Unlock()

	return r.snapshot(), nil
}

// Members returns a sorted snapshot of the room's roster.
func (g *Registry) Members(name string) ([]string, error) {
	r, err := g.get(name)
	if err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// Lock acquires the room's operation lock and returns its release func.
// Presence holds it across mutate, snapshot and publish.
func (g *Registry) Lock(name string) (func(), error) {
	r, err := g.get(name)
	if err != nil {
		return nil, err
	}
	r.op.Lock()
	return r.op.Unlock, nil
}

func (g *Registry) get(name string) (*room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[name]
	if !ok {
		return nil, unknownRoom(name)
	}
	return r, nil
}
