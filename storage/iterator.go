package storage

import (
	"github.com/veldtgames/veldt/types"
)

// ArchetypeIterator walks the archetype IDs collected by a search.
type ArchetypeIterator struct {
	current int
	values  []types.ArchetypeID
}

// HasNext reports whether another archetype ID remains.
func (it *ArchetypeIterator) HasNext() bool {
	return it.current < len(it.values)
}

// Next returns the next archetype ID.
func (it *ArchetypeIterator) Next() types.ArchetypeID {
	id := it.values[it.current]
	it.current++
	return id
}
