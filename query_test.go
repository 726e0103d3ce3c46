package veldt_test

import (
	"testing"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/assert"
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/types"
)

type Position struct {
	X, Y float64
}

func (Position) Name() string { return "position" }

type Velocity struct {
	DX, DY float64
}

func (Velocity) Name() string { return "velocity" }

type Rotation struct {
	Degrees float64
}

func (Rotation) Name() string { return "rotation" }

type Scale struct {
	Factor float64
}

func (Scale) Name() string { return "scale" }

type Frozen struct{}

func (Frozen) Name() string { return "frozen" }

type neverUsed struct{}

func (neverUsed) Name() string { return "never_used" }

func newMovementWorld(t *testing.T) *veldt.World {
	t.Helper()
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	assert.NilError(t, veldt.RegisterComponent[Position](w))
	assert.NilError(t, veldt.RegisterComponent[Velocity](w))
	assert.NilError(t, veldt.RegisterComponent[Frozen](w))
	return w
}

func TestQueryMatchesOnlyFullComponentSets(t *testing.T) {
	w := newMovementWorld(t)
	both1, err := w.SpawnWith(Position{X: 1}, Velocity{DX: 1})
	assert.NilError(t, err)
	both2, err := w.SpawnWith(Position{X: 2}, Velocity{DX: 2})
	assert.NilError(t, err)
	_, err = w.SpawnWith(Position{X: 3})
	assert.NilError(t, err)
	_, err = w.SpawnWith(Velocity{DX: 3})
	assert.NilError(t, err)

	q := veldt.NewQuery2[Position, Velocity](w)
	assert.Equal(t, q.Count(), 2)

	seen := map[types.Entity]bool{}
	q.Each(func(e types.Entity, _ *Position, _ *Velocity) bool {
		seen[e] = true
		return true
	})
	assert.Len(t, seen, 2)
	assert.True(t, seen[both1])
	assert.True(t, seen[both2])
}

func TestMovementAcrossTicks(t *testing.T) {
	w := newMovementWorld(t)
	mover, err := w.SpawnWith(Position{}, Velocity{DX: 1, DY: 2})
	assert.NilError(t, err)
	static, err := w.SpawnWith(Position{X: 100, Y: 100})
	assert.NilError(t, err)

	moveOnce := func() {
		veldt.NewQuery2[Position, Velocity](w).Each(func(_ types.Entity, pos *Position, vel *Velocity) bool {
			pos.X += vel.DX
			pos.Y += vel.DY
			return true
		})
		w.AdvanceTick()
	}
	moveOnce()
	moveOnce()
	moveOnce()

	pos, _ := veldt.Get[Position](w, mover)
	assert.Equal(t, *pos, Position{X: 3, Y: 6})
	pos, _ = veldt.Get[Position](w, static)
	assert.Equal(t, *pos, Position{X: 100, Y: 100})
}

func TestQueryEarlyExitAndFirst(t *testing.T) {
	w := newMovementWorld(t)
	for i := 0; i < 5; i++ {
		_, err := w.SpawnWith(Position{X: float64(i)})
		assert.NilError(t, err)
	}

	calls := 0
	veldt.NewQuery1[Position](w).Each(func(types.Entity, *Position) bool {
		calls++
		return false
	})
	assert.Equal(t, calls, 1)

	e, pos, ok := veldt.NewQuery1[Position](w).First()
	assert.True(t, ok)
	assert.True(t, w.IsAlive(e))
	assert.NotNil(t, pos)
}

func TestQueryExtraFiltersCompose(t *testing.T) {
	w := newMovementWorld(t)
	for i := 0; i < 2; i++ {
		_, err := w.SpawnWith(Position{}, Velocity{})
		assert.NilError(t, err)
	}
	iced, err := w.SpawnWith(Position{}, Velocity{}, Frozen{})
	assert.NilError(t, err)

	assert.Equal(t, veldt.NewQuery2[Position, Velocity](w).Count(), 3)

	active := veldt.NewQuery2[Position, Velocity](w, filter.Without(Frozen{}))
	assert.Equal(t, active.Count(), 2)
	active.Each(func(e types.Entity, _ *Position, _ *Velocity) bool {
		assert.Assert(t, e != iced)
		return true
	})

	assert.Equal(t, veldt.NewQuery2[Position, Velocity](w, filter.With(Frozen{})).Count(), 1)
}

func TestChangedFilterHonorsTickBoundaries(t *testing.T) {
	w := newMovementWorld(t)
	e, err := w.SpawnWith(Position{X: 1})
	assert.NilError(t, err)

	w.AdvanceTick()
	assert.NilError(t, veldt.Insert(w, e, Position{X: 2}))

	// The default window is "since the previous tick", so the overwrite at
	// tick 1 is visible during tick 1.
	q := veldt.NewQuery1[Position](w, filter.Changed(Position{}))
	assert.Equal(t, q.Count(), 1)
	assert.Equal(t, q.SinceTick(0).Count(), 1)
	assert.Equal(t, q.SinceTick(1).Count(), 0)

	// One tick later, with no further writes, the default window has closed.
	w.AdvanceTick()
	q = veldt.NewQuery1[Position](w, filter.Changed(Position{}))
	assert.Equal(t, q.Count(), 0)
}

func TestPointerWritesAreInvisibleUntilReinserted(t *testing.T) {
	w := newMovementWorld(t)
	e, err := w.SpawnWith(Position{X: 1})
	assert.NilError(t, err)
	w.AdvanceTick()

	p, ok := veldt.Get[Position](w, e)
	assert.True(t, ok)
	p.X = 99

	q := veldt.NewQuery1[Position](w, filter.Changed(Position{}))
	assert.Equal(t, q.Count(), 0)

	// Re-inserting the mutated value stamps the change.
	assert.NilError(t, veldt.Insert(w, e, *p))
	assert.Equal(t, q.Count(), 1)
}

func TestAddedFilterMatchesWithinItsWindow(t *testing.T) {
	w := newMovementWorld(t)
	w.AdvanceTick()

	e, err := w.SpawnWith(Position{})
	assert.NilError(t, err)
	assert.Equal(t, veldt.NewQuery1[Position](w, filter.Added(Position{})).Count(), 1)

	w.AdvanceTick()
	assert.Equal(t, veldt.NewQuery1[Position](w, filter.Added(Position{})).Count(), 0)

	// Overwriting marks the component changed, never re-added.
	assert.NilError(t, veldt.Insert(w, e, Position{X: 5}))
	assert.Equal(t, veldt.NewQuery1[Position](w, filter.Added(Position{})).Count(), 0)
	assert.Equal(t, veldt.NewQuery1[Position](w, filter.Changed(Position{})).Count(), 1)

	// A migration stamps only the incoming component as added.
	assert.NilError(t, veldt.Insert(w, e, Velocity{DX: 1}))
	assert.Equal(t, veldt.NewQuery1[Velocity](w, filter.Added(Velocity{})).Count(), 1)
	assert.Equal(t, veldt.NewQuery1[Position](w, filter.Added(Position{})).Count(), 0)
}

func TestHigherArityQueries(t *testing.T) {
	w := newMovementWorld(t)
	assert.NilError(t, veldt.RegisterComponent[Rotation](w))
	assert.NilError(t, veldt.RegisterComponent[Scale](w))

	full, err := w.SpawnWith(Position{X: 1}, Velocity{DX: 2}, Rotation{Degrees: 3}, Scale{Factor: 4})
	assert.NilError(t, err)
	_, err = w.SpawnWith(Position{}, Velocity{}, Rotation{})
	assert.NilError(t, err)

	assert.Equal(t, veldt.NewQuery3[Position, Velocity, Rotation](w).Count(), 2)

	q4 := veldt.NewQuery4[Position, Velocity, Rotation, Scale](w)
	assert.Equal(t, q4.Count(), 1)
	e, pos, vel, rot, scale, ok := q4.First()
	assert.True(t, ok)
	assert.Equal(t, e, full)
	assert.Equal(t, pos.X, 1.0)
	assert.Equal(t, vel.DX, 2.0)
	assert.Equal(t, rot.Degrees, 3.0)
	assert.Equal(t, scale.Factor, 4.0)
}

func TestQueryOverUnregisteredComponentMatchesNothing(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	w.Spawn()

	q := veldt.NewQuery1[neverUsed](w)
	assert.Equal(t, q.Count(), 0)
	_, _, ok := q.First()
	assert.False(t, ok)
}

func TestSearchAllAndMustFirst(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	assert.Panics(t, func() {
		w.Search(filter.All()).MustFirst()
	})

	e := w.Spawn()
	assert.Equal(t, w.Search(filter.All()).Count(), 1)
	assert.Equal(t, w.Search(filter.All()).MustFirst(), e)
}

func TestEachSkipsRowsDespawnedMidIteration(t *testing.T) {
	w := newMovementWorld(t)
	spawned := make([]types.Entity, 0, 4)
	for i := 0; i < 4; i++ {
		e, err := w.SpawnWith(Position{X: float64(i)})
		assert.NilError(t, err)
		spawned = append(spawned, e)
	}

	visited := 0
	first := true
	veldt.NewQuery1[Position](w).Each(func(e types.Entity, _ *Position) bool {
		visited++
		if first {
			first = false
			// Despawn everything else mid-iteration; those rows must be
			// skipped rather than yielded stale.
			for _, other := range spawned {
				if other != e {
					w.Despawn(other)
				}
			}
		}
		return true
	})
	assert.Equal(t, visited, 1)
	assert.Equal(t, w.EntityCount(), 1)
}
