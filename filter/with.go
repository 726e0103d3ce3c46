package filter

import (
	"github.com/veldtgames/veldt/types"
)

type with struct {
	components []types.Component
}

// With matches archetypes that contain all the components specified. Pass
// zero values: With(Position{}, Velocity{}).
func With(components ...types.Component) ComponentFilter {
	return &with{components: components}
}

func (f *with) MatchesArchetype(set ComponentSet) bool {
	for _, c := range f.components {
		if !set.HasComponent(c.Name()) {
			return false
		}
	}
	return true
}

func (f *with) MatchesRow(row RowView) bool {
	return f.MatchesArchetype(row)
}
