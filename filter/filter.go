package filter

import (
	"github.com/veldtgames/veldt/types"
)

// ComponentSet is the set of component names an archetype holds.
type ComponentSet interface {
	// HasComponent returns true if the set contains the named component.
	HasComponent(name string) bool
	// ComponentCount returns the number of components in the set.
	ComponentCount() int
}

// RowView exposes a single table row to a filter. Structural predicates answer
// from the row's component set (constant across an archetype); tick predicates
// compare the row's component stamps against the last-seen tick captured when
// the search was constructed.
type RowView interface {
	ComponentSet
	// ComponentTicks returns the tick stamps for the named component on this row.
	ComponentTicks(name string) (types.ComponentTicks, bool)
	// LastSeen is the tick the search compares stamps against; a stamp matches
	// when it is strictly greater.
	LastSeen() types.Tick
}

// ComponentFilter is a filter that filters entities based on their components.
type ComponentFilter interface {
	// MatchesArchetype returns true if an archetype with the given component set
	// can contain matching rows.
	MatchesArchetype(set ComponentSet) bool
	// MatchesRow returns true if the specific row matches the filter.
	MatchesRow(row RowView) bool
}

// rowSensitive is implemented by filters whose row matching depends on tick
// stamps rather than on the archetype's component set alone.
type rowSensitive interface {
	rowSensitive() bool
}

// IsRowSensitive reports whether f must be evaluated per row. Searches skip the
// per-row pass entirely for purely structural filters.
func IsRowSensitive(f ComponentFilter) bool {
	rs, ok := f.(rowSensitive)
	return ok && rs.rowSensitive()
}
