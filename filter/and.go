package filter

type and struct {
	filters []ComponentFilter
}

// And matches when every given filter matches.
func And(filters ...ComponentFilter) ComponentFilter {
	return &and{filters: filters}
}

func (f *and) MatchesArchetype(set ComponentSet) bool {
	for _, filter := range f.filters {
		if !filter.MatchesArchetype(set) {
			return false
		}
	}
	return true
}

func (f *and) MatchesRow(row RowView) bool {
	for _, filter := range f.filters {
		if !filter.MatchesRow(row) {
			return false
		}
	}
	return true
}

func (f *and) rowSensitive() bool {
	return anyRowSensitive(f.filters)
}
