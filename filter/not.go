package filter

// Not negates the given filter. Negation is structural: a tick filter inside a
// Not excludes whole archetypes that could match it, it does not select
// unchanged rows.
func Not(filter ComponentFilter) ComponentFilter {
	return &not{filter: filter}
}

type not struct {
	filter ComponentFilter
}

func (f *not) MatchesArchetype(set ComponentSet) bool {
	return !f.filter.MatchesArchetype(set)
}

func (f *not) MatchesRow(row RowView) bool {
	return !f.filter.MatchesRow(row)
}

func (f *not) rowSensitive() bool {
	return anyRowSensitive([]ComponentFilter{f.filter})
}
