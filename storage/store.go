// Package storage implements the archetype tables that hold all entity and
// component data. Entities with an identical component set share one
// Archetype; adding or removing a component migrates the entity's row to the
// archetype matching its new set. The Store is not safe for concurrent use.
package storage

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/types"
)

const doesNotExistArchetypeID = types.ArchetypeID(-1)

var (
	// ErrEntityDoesNotExist is returned when a handle is stale or was never
	// issued. Treat it as a no-op signal rather than a fault; despawning twice
	// is legal.
	ErrEntityDoesNotExist = eris.New("entity does not exist")
	// ErrComponentNotOnEntity is returned when removing a component the entity
	// does not have.
	ErrComponentNotOnEntity = eris.New("component not on entity")
	// ErrColumnNotRegistered is returned when entity data references a
	// component ID with no registered column constructor.
	ErrColumnNotRegistered = eris.New("component column not registered")
)

type registeredColumn struct {
	name  string
	maker ColumnMaker
}

// Store owns every archetype plus the entity index that maps live handles to
// their (archetype, row) location. Archetypes are created on demand and never
// destroyed, so ArchetypeID stays a stable identity for caching.
type Store struct {
	columns    map[types.ComponentID]registeredColumn
	nameToID   map[string]types.ComponentID
	archetypes []*Archetype
	archByKey  map[string]types.ArchetypeID
	index      *entityIndex
}

// NewStore returns an empty store holding only the zero-component archetype,
// which always has ID 0.
func NewStore() *Store {
	s := &Store{
		columns:   map[types.ComponentID]registeredColumn{},
		nameToID:  map[string]types.ComponentID{},
		archByKey: map[string]types.ArchetypeID{},
		index:     newEntityIndex(),
	}
	// The empty set needs no registered columns, so this cannot fail.
	_, _ = s.getOrCreateArchetype(nil)
	return s
}

// RegisterColumn teaches the store how to build typed columns for the given
// component ID. Registering the same (id, name) pair again is a no-op.
func (s *Store) RegisterColumn(id types.ComponentID, name string, maker ColumnMaker) error {
	if existing, ok := s.columns[id]; ok {
		if existing.name == name {
			return nil
		}
		return eris.Errorf("component ID %d is already registered as %q", id, existing.name)
	}
	if otherID, ok := s.nameToID[name]; ok {
		return eris.Errorf("component %q is already registered with ID %d", name, otherID)
	}
	s.columns[id] = registeredColumn{name: name, maker: maker}
	s.nameToID[name] = id
	return nil
}

// ComponentIDByName resolves a registered component name to its ID.
func (s *Store) ComponentIDByName(name string) (types.ComponentID, bool) {
	id, ok := s.nameToID[name]
	return id, ok
}

// Spawn creates a new entity holding the given components. ids and values are
// parallel slices; ids need not be sorted but must not repeat.
func (s *Store) Spawn(now types.Tick, ids []types.ComponentID, values []any) (types.Entity, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return types.Nil, eris.Errorf("component ID %d appears twice in spawn", sorted[i])
		}
	}
	arch, err := s.getOrCreateArchetype(sorted)
	if err != nil {
		return types.Nil, err
	}
	e := s.index.allocate()
	row := arch.appendRow(e)
	for i, id := range ids {
		arch.column(id).Append(values[i], now)
	}
	s.index.setLocation(e.ID, arch.id, row)
	return e, nil
}

// Despawn removes the entity and frees its handle. Stale and Nil handles
// report false without side effects.
func (s *Store) Despawn(e types.Entity) bool {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return false
	}
	arch := s.archetypes[archID]
	if moved, swapped := arch.swapRemoveRow(row); swapped {
		s.index.setLocation(moved.ID, archID, row)
	}
	s.index.free(e)
	return true
}

// IsAlive reports whether the handle resolves to a live entity.
func (s *Store) IsAlive(e types.Entity) bool {
	return s.index.isAlive(e)
}

// Location returns where the entity's row lives.
func (s *Store) Location(e types.Entity) (types.ArchetypeID, int, bool) {
	return s.index.resolve(e)
}

// ComponentIDsFor returns the entity's component set in ascending ID order.
// The returned slice must not be mutated.
func (s *Store) ComponentIDsFor(e types.Entity) ([]types.ComponentID, bool) {
	archID, _, ok := s.index.resolve(e)
	if !ok {
		return nil, false
	}
	return s.archetypes[archID].ComponentIDs(), true
}

// HasComponent reports whether the entity is alive and carries the component.
func (s *Store) HasComponent(e types.Entity, id types.ComponentID) bool {
	archID, _, ok := s.index.resolve(e)
	if !ok {
		return false
	}
	return s.archetypes[archID].HasComponentID(id)
}

// Value returns a copy of the entity's component value.
func (s *Store) Value(e types.Entity, id types.ComponentID) (any, bool) {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return nil, false
	}
	arch := s.archetypes[archID]
	if !arch.HasComponentID(id) {
		return nil, false
	}
	return arch.column(id).Value(row), true
}

// Pointer returns a pointer to the entity's component value. The pointer is
// valid only until the next structural change (spawn, despawn, insert,
// remove); writes through it bypass change detection.
func (s *Store) Pointer(e types.Entity, id types.ComponentID) (any, bool) {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return nil, false
	}
	arch := s.archetypes[archID]
	if !arch.HasComponentID(id) {
		return nil, false
	}
	return arch.column(id).Pointer(row), true
}

// Ticks returns the component's added/changed stamps.
func (s *Store) Ticks(e types.Entity, id types.ComponentID) (types.ComponentTicks, bool) {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return types.ComponentTicks{}, false
	}
	arch := s.archetypes[archID]
	if !arch.HasComponentID(id) {
		return types.ComponentTicks{}, false
	}
	return arch.column(id).Ticks(row), true
}

// Insert sets the component on the entity. If the entity already carries the
// component the value is overwritten in place and only the changed stamp
// advances; otherwise the entity migrates to the archetype with the extended
// set and the component is stamped as added. Reports whether the component
// was newly added.
func (s *Store) Insert(e types.Entity, id types.ComponentID, value any, now types.Tick) (bool, error) {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return false, eris.Wrapf(ErrEntityDoesNotExist, "cannot insert component %d", id)
	}
	src := s.archetypes[archID]
	if src.HasComponentID(id) {
		src.column(id).Set(row, value, now)
		return false, nil
	}

	ids := make([]types.ComponentID, 0, len(src.componentIDs)+1)
	ids = append(ids, src.componentIDs...)
	at, _ := slices.BinarySearch(ids, id)
	ids = slices.Insert(ids, at, id)
	dst, err := s.getOrCreateArchetype(ids)
	if err != nil {
		return false, err
	}

	dstRow := dst.appendRow(e)
	for _, cid := range src.componentIDs {
		src.column(cid).CopyTo(row, dst.column(cid))
	}
	dst.column(id).Append(value, now)
	if moved, swapped := src.swapRemoveRow(row); swapped {
		s.index.setLocation(moved.ID, src.id, row)
	}
	s.index.setLocation(e.ID, dst.id, dstRow)
	return true, nil
}

// Remove takes the component off the entity, migrating it to the archetype
// with the narrowed set, and returns the removed value.
func (s *Store) Remove(e types.Entity, id types.ComponentID) (any, error) {
	archID, row, ok := s.index.resolve(e)
	if !ok {
		return nil, eris.Wrapf(ErrEntityDoesNotExist, "cannot remove component %d", id)
	}
	src := s.archetypes[archID]
	if !src.HasComponentID(id) {
		return nil, eris.Wrapf(ErrComponentNotOnEntity, "cannot remove component %d", id)
	}
	removed := src.column(id).Value(row)

	ids := make([]types.ComponentID, 0, len(src.componentIDs)-1)
	for _, cid := range src.componentIDs {
		if cid != id {
			ids = append(ids, cid)
		}
	}
	dst, err := s.getOrCreateArchetype(ids)
	if err != nil {
		return nil, err
	}

	dstRow := dst.appendRow(e)
	for _, cid := range ids {
		src.column(cid).CopyTo(row, dst.column(cid))
	}
	if moved, swapped := src.swapRemoveRow(row); swapped {
		s.index.setLocation(moved.ID, src.id, row)
	}
	s.index.setLocation(e.ID, dst.id, dstRow)
	return removed, nil
}

// EntityCount returns the number of live entities.
func (s *Store) EntityCount() int {
	return s.index.count()
}

// Reserve preallocates entity index slots so spawn bursts up to n live
// entities do not grow the table. Callers that know their population ahead of
// time can use it as a hint; it never shrinks.
func (s *Store) Reserve(n int) {
	s.index.reserve(n)
}

// ArchetypeCount returns how many archetypes exist. Archetypes are never
// destroyed, so this only grows.
func (s *Store) ArchetypeCount() int {
	return len(s.archetypes)
}

// Archetype returns the archetype with the given ID. IDs come from Location
// or SearchFrom and are always valid.
func (s *Store) Archetype(id types.ArchetypeID) *Archetype {
	return s.archetypes[id]
}

// ClearEntities despawns every entity at once. Archetype definitions survive
// so cached searches stay valid, and handle generations bump as with a normal
// despawn.
func (s *Store) ClearEntities() {
	for _, arch := range s.archetypes {
		arch.reset()
	}
	s.index.freeAll()
}

// SearchFrom collects the archetypes at index start and beyond whose
// component set matches the filter. Search caches pass the count of
// archetypes they have already inspected so only new archetypes get scanned.
func (s *Store) SearchFrom(f filter.ComponentFilter, start int) *ArchetypeIterator {
	it := &ArchetypeIterator{}
	for i := start; i < len(s.archetypes); i++ {
		if f.MatchesArchetype(s.archetypes[i]) {
			it.values = append(it.values, types.ArchetypeID(i))
		}
	}
	return it
}

func (s *Store) getOrCreateArchetype(sortedIDs []types.ComponentID) (*Archetype, error) {
	key := archetypeKey(sortedIDs)
	if id, ok := s.archByKey[key]; ok {
		return s.archetypes[id], nil
	}
	names := make([]string, len(sortedIDs))
	columns := make([]Column, len(sortedIDs))
	for i, cid := range sortedIDs {
		reg, ok := s.columns[cid]
		if !ok {
			return nil, eris.Wrapf(ErrColumnNotRegistered, "component ID %d", cid)
		}
		names[i] = reg.name
		columns[i] = reg.maker()
	}
	arch := newArchetype(types.ArchetypeID(len(s.archetypes)), slices.Clone(sortedIDs), names, columns)
	s.archetypes = append(s.archetypes, arch)
	s.archByKey[key] = arch.id
	return arch, nil
}

func archetypeKey(sortedIDs []types.ComponentID) string {
	var b strings.Builder
	for _, id := range sortedIDs {
		b.WriteString(strconv.Itoa(int(id)))
		b.WriteByte(',')
	}
	return b.String()
}
