package storage

import (
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/types"
)

// Interface guard
var _ filter.ComponentSet = (*Archetype)(nil)

// Archetype is one columnar table holding every entity with an identical
// component set. Rows are dense: removal swaps the last row into the gap, so
// iteration never skips holes. Invariant: entities[r] resolves back to
// (this archetype, r) in the entity index for every row r.
type Archetype struct {
	id           types.ArchetypeID
	componentIDs []types.ComponentID // sorted ascending
	columnOf     map[types.ComponentID]int
	nameIndex    map[string]int
	entities     []types.Entity
	columns      []Column
}

func newArchetype(
	id types.ArchetypeID,
	componentIDs []types.ComponentID,
	names []string,
	columns []Column,
) *Archetype {
	arch := &Archetype{
		id:           id,
		componentIDs: componentIDs,
		columnOf:     make(map[types.ComponentID]int, len(componentIDs)),
		nameIndex:    make(map[string]int, len(componentIDs)),
		entities:     nil,
		columns:      columns,
	}
	for i, cid := range componentIDs {
		arch.columnOf[cid] = i
		arch.nameIndex[names[i]] = i
	}
	return arch
}

// ID returns the archetype's stable identifier.
func (a *Archetype) ID() types.ArchetypeID {
	return a.id
}

// Len returns the number of rows.
func (a *Archetype) Len() int {
	return len(a.entities)
}

// ComponentIDs returns the archetype's component set in ascending ID order.
// The returned slice must not be mutated.
func (a *Archetype) ComponentIDs() []types.ComponentID {
	return a.componentIDs
}

// HasComponentID reports whether the archetype's set contains the component.
func (a *Archetype) HasComponentID(id types.ComponentID) bool {
	_, ok := a.columnOf[id]
	return ok
}

// HasComponent reports whether the archetype's set contains the named
// component.
func (a *Archetype) HasComponent(name string) bool {
	_, ok := a.nameIndex[name]
	return ok
}

// ComponentCount returns the size of the archetype's component set.
func (a *Archetype) ComponentCount() int {
	return len(a.componentIDs)
}

// EntityAt returns the entity occupying the given row.
func (a *Archetype) EntityAt(row int) types.Entity {
	return a.entities[row]
}

// Entities returns a snapshot of the entities in this table. Callbacks run
// during iteration may mutate the table, so callers iterate the snapshot and
// re-resolve each handle.
func (a *Archetype) Entities() []types.Entity {
	out := make([]types.Entity, len(a.entities))
	copy(out, a.entities)
	return out
}

// TicksFor returns the tick stamps of the named component on the given row.
func (a *Archetype) TicksFor(name string, row int) (types.ComponentTicks, bool) {
	ci, ok := a.nameIndex[name]
	if !ok {
		return types.ComponentTicks{}, false
	}
	return a.columns[ci].Ticks(row), true
}

func (a *Archetype) column(id types.ComponentID) Column {
	return a.columns[a.columnOf[id]]
}

// appendRow adds the entity to the entity list and returns its row. The
// caller is responsible for appending one value to every column so the table
// stays aligned.
func (a *Archetype) appendRow(e types.Entity) int {
	a.entities = append(a.entities, e)
	return len(a.entities) - 1
}

// swapRemoveRow removes the row from every column and from the entity list by
// swapping in the last row. It returns the entity that now occupies row, or
// (Nil, false) when the removed row was the last one.
func (a *Archetype) swapRemoveRow(row int) (types.Entity, bool) {
	for _, col := range a.columns {
		col.SwapRemove(row)
	}
	last := len(a.entities) - 1
	moved := a.entities[last]
	a.entities[row] = moved
	a.entities = a.entities[:last]
	if row == last {
		return types.Nil, false
	}
	return moved, true
}

// reset drops every row while keeping the archetype definition and its
// columns, preserving the archetype's identity across state resets.
func (a *Archetype) reset() {
	for _, col := range a.columns {
		col.Reset()
	}
	a.entities = a.entities[:0]
}
