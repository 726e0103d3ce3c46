package filter

import (
	"github.com/veldtgames/veldt/types"
)

type exact struct {
	components []types.Component
}

// Exact matches archetypes that contain exactly the components specified.
func Exact(components ...types.Component) ComponentFilter {
	return exact{
		components: components,
	}
}

func (f exact) MatchesArchetype(set ComponentSet) bool {
	if set.ComponentCount() != len(f.components) {
		return false
	}
	for _, c := range f.components {
		if !set.HasComponent(c.Name()) {
			return false
		}
	}
	return true
}

func (f exact) MatchesRow(row RowView) bool {
	return f.MatchesArchetype(row)
}
