package filter

func anyRowSensitive(filters []ComponentFilter) bool {
	for _, f := range filters {
		if IsRowSensitive(f) {
			return true
		}
	}
	return false
}
