package filter

type all struct{}

// All matches every archetype and every row.
func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesArchetype(_ ComponentSet) bool {
	return true
}

func (f *all) MatchesRow(_ RowView) bool {
	return true
}
