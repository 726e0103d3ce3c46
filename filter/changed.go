package filter

import (
	"github.com/veldtgames/veldt/types"
)

type changed struct {
	component types.Component
}

// Changed matches rows whose component was overwritten through the mutation
// API after the search's last-seen tick. In-place writes through a pointer
// returned by a getter are invisible; re-insert the component to signal a
// change. An archetype without the component never matches.
func Changed(component types.Component) ComponentFilter {
	return changed{component: component}
}

func (f changed) MatchesArchetype(set ComponentSet) bool {
	return set.HasComponent(f.component.Name())
}

func (f changed) MatchesRow(row RowView) bool {
	ticks, ok := row.ComponentTicks(f.component.Name())
	if !ok {
		return false
	}
	return ticks.IsChangedSince(row.LastSeen())
}

func (f changed) rowSensitive() bool {
	return true
}
