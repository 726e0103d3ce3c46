package filter_test

import (
	"slices"
	"testing"

	"github.com/veldtgames/veldt/assert"
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/types"
)

type Alpha struct{}

func (Alpha) Name() string { return "alpha" }

type Beta struct{}

func (Beta) Name() string { return "beta" }

type Gamma struct{}

func (Gamma) Name() string { return "gamma" }

type fakeSet struct {
	names []string
}

func (s fakeSet) HasComponent(name string) bool { return slices.Contains(s.names, name) }
func (s fakeSet) ComponentCount() int           { return len(s.names) }

type fakeRow struct {
	fakeSet
	ticks    map[string]types.ComponentTicks
	lastSeen types.Tick
}

func (r fakeRow) ComponentTicks(name string) (types.ComponentTicks, bool) {
	t, ok := r.ticks[name]
	return t, ok
}

func (r fakeRow) LastSeen() types.Tick { return r.lastSeen }

func TestStructuralFilters(t *testing.T) {
	ab := fakeSet{names: []string{"alpha", "beta"}}
	a := fakeSet{names: []string{"alpha"}}
	empty := fakeSet{}

	testCases := []struct {
		name   string
		filter filter.ComponentFilter
		set    fakeSet
		want   bool
	}{
		{"with matches superset", filter.With(Alpha{}), ab, true},
		{"with requires every component", filter.With(Alpha{}, Gamma{}), ab, false},
		{"without rejects any present", filter.Without(Beta{}), ab, false},
		{"without matches absent", filter.Without(Gamma{}), ab, true},
		{"exact matches same set", filter.Exact(Alpha{}, Beta{}), ab, true},
		{"exact rejects subset", filter.Exact(Alpha{}), ab, false},
		{"exact rejects superset", filter.Exact(Alpha{}, Beta{}), a, false},
		{"and combines", filter.And(filter.With(Alpha{}), filter.Without(Gamma{})), ab, true},
		{"and fails on one branch", filter.And(filter.With(Alpha{}), filter.With(Gamma{})), ab, false},
		{"or needs one branch", filter.Or(filter.With(Gamma{}), filter.With(Beta{})), ab, true},
		{"or fails on all branches", filter.Or(filter.With(Gamma{})), ab, false},
		{"not inverts", filter.Not(filter.With(Alpha{})), ab, false},
		{"all matches everything", filter.All(), empty, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.filter.MatchesArchetype(tc.set), tc.want)
		})
	}
}

func TestAddedMatchesRowsStampedAfterLastSeen(t *testing.T) {
	f := filter.Added(Alpha{})
	row := fakeRow{
		fakeSet:  fakeSet{names: []string{"alpha"}},
		ticks:    map[string]types.ComponentTicks{"alpha": {Added: 5, Changed: 5}},
		lastSeen: 4,
	}
	assert.True(t, f.MatchesRow(row))

	row.lastSeen = 5
	assert.False(t, f.MatchesRow(row))

	// Archetypes without the component are skipped outright.
	assert.False(t, f.MatchesArchetype(fakeSet{names: []string{"beta"}}))
}

func TestChangedMatchesRowsWrittenAfterLastSeen(t *testing.T) {
	f := filter.Changed(Alpha{})
	row := fakeRow{
		fakeSet:  fakeSet{names: []string{"alpha"}},
		ticks:    map[string]types.ComponentTicks{"alpha": {Added: 1, Changed: 7}},
		lastSeen: 6,
	}
	assert.True(t, f.MatchesRow(row))

	row.lastSeen = 7
	assert.False(t, f.MatchesRow(row))

	// A stale write never matches even though the component is present.
	row.ticks["alpha"] = types.ComponentTicks{Added: 1, Changed: 1}
	row.lastSeen = 3
	assert.False(t, f.MatchesRow(row))
}

func TestIsRowSensitivePropagatesThroughCombinators(t *testing.T) {
	assert.False(t, filter.IsRowSensitive(filter.With(Alpha{})))
	assert.False(t, filter.IsRowSensitive(filter.Exact(Alpha{})))
	assert.True(t, filter.IsRowSensitive(filter.Added(Alpha{})))
	assert.True(t, filter.IsRowSensitive(filter.Changed(Alpha{})))

	assert.True(t, filter.IsRowSensitive(filter.And(filter.With(Alpha{}), filter.Added(Beta{}))))
	assert.True(t, filter.IsRowSensitive(filter.Or(filter.Changed(Alpha{}))))
	assert.True(t, filter.IsRowSensitive(filter.Not(filter.Added(Alpha{}))))
	assert.False(t, filter.IsRowSensitive(filter.And(filter.With(Alpha{}), filter.Without(Beta{}))))
}
