package storage

import (
	"github.com/veldtgames/veldt/types"
)

type entityMeta struct {
	generation types.Generation
	archetype  types.ArchetypeID // doesNotExistArchetypeID when the slot is free
	row        int
}

// entityIndex owns the slot table mapping entity IDs to archetype locations,
// plus the free list of recycled slots.
type entityIndex struct {
	metas   []entityMeta
	freeIDs []types.EntityID
	alive   int
}

func newEntityIndex() *entityIndex {
	return &entityIndex{}
}

// reserve grows the slot table's capacity so allocations up to n total slots
// append without reallocating. Existing slots and the free list are untouched.
func (idx *entityIndex) reserve(n int) {
	if n <= cap(idx.metas) {
		return
	}
	metas := make([]entityMeta, len(idx.metas), n)
	copy(metas, idx.metas)
	idx.metas = metas
}

// allocate returns a live handle, reusing a freed slot when one is available.
// Freed slots already carry their next generation; brand-new slots start at
// generation 0.
func (idx *entityIndex) allocate() types.Entity {
	idx.alive++
	if n := len(idx.freeIDs); n > 0 {
		id := idx.freeIDs[n-1]
		idx.freeIDs = idx.freeIDs[:n-1]
		return types.Entity{ID: id, Generation: idx.metas[id].generation}
	}
	idx.metas = append(idx.metas, entityMeta{archetype: doesNotExistArchetypeID})
	return types.Entity{ID: types.EntityID(len(idx.metas) - 1)}
}

// free retires the slot. The generation bump invalidates every outstanding
// handle to it immediately.
func (idx *entityIndex) free(e types.Entity) {
	meta := &idx.metas[e.ID]
	meta.generation++
	meta.archetype = doesNotExistArchetypeID
	meta.row = 0
	idx.freeIDs = append(idx.freeIDs, e.ID)
	idx.alive--
}

// resolve returns the archetype location of a live handle. Dead, stale, and
// Nil handles all report false.
func (idx *entityIndex) resolve(e types.Entity) (types.ArchetypeID, int, bool) {
	if int64(e.ID) >= int64(len(idx.metas)) {
		return doesNotExistArchetypeID, 0, false
	}
	meta := idx.metas[e.ID]
	if meta.generation != e.Generation || meta.archetype == doesNotExistArchetypeID {
		return doesNotExistArchetypeID, 0, false
	}
	return meta.archetype, meta.row, true
}

func (idx *entityIndex) setLocation(id types.EntityID, archID types.ArchetypeID, row int) {
	meta := &idx.metas[id]
	meta.archetype = archID
	meta.row = row
}

func (idx *entityIndex) isAlive(e types.Entity) bool {
	_, _, ok := idx.resolve(e)
	return ok
}

func (idx *entityIndex) count() int {
	return idx.alive
}

// freeAll retires every live slot. Generations still bump, so handles issued
// before the wipe stay invalid forever.
func (idx *entityIndex) freeAll() {
	for id := range idx.metas {
		meta := &idx.metas[id]
		if meta.archetype == doesNotExistArchetypeID {
			continue
		}
		meta.generation++
		meta.archetype = doesNotExistArchetypeID
		meta.row = 0
		idx.freeIDs = append(idx.freeIDs, types.EntityID(id))
	}
	idx.alive = 0
}
