package filter

import (
	"github.com/veldtgames/veldt/types"
)

type added struct {
	component types.Component
}

// Added matches rows whose component was inserted after the search's
// last-seen tick. An archetype without the component never matches.
func Added(component types.Component) ComponentFilter {
	return added{component: component}
}

func (f added) MatchesArchetype(set ComponentSet) bool {
	return set.HasComponent(f.component.Name())
}

func (f added) MatchesRow(row RowView) bool {
	ticks, ok := row.ComponentTicks(f.component.Name())
	if !ok {
		return false
	}
	return ticks.IsAddedSince(row.LastSeen())
}

func (f added) rowSensitive() bool {
	return true
}
