package filter

import (
	"github.com/veldtgames/veldt/types"
)

type without struct {
	components []types.Component
}

// Without matches archetypes that contain none of the components specified.
func Without(components ...types.Component) ComponentFilter {
	return &without{components: components}
}

func (f *without) MatchesArchetype(set ComponentSet) bool {
	for _, c := range f.components {
		if set.HasComponent(c.Name()) {
			return false
		}
	}
	return true
}

func (f *without) MatchesRow(row RowView) bool {
	return f.MatchesArchetype(row)
}
