package filter

type or struct {
	filters []ComponentFilter
}

// Or matches when at least one of the given filters matches.
func Or(filters ...ComponentFilter) ComponentFilter {
	return &or{filters: filters}
}

func (f *or) MatchesArchetype(set ComponentSet) bool {
	for _, filter := range f.filters {
		if filter.MatchesArchetype(set) {
			return true
		}
	}
	return false
}

func (f *or) MatchesRow(row RowView) bool {
	for _, filter := range f.filters {
		if filter.MatchesRow(row) {
			return true
		}
	}
	return false
}

func (f *or) rowSensitive() bool {
	return anyRowSensitive(f.filters)
}
