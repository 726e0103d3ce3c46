package veldt_test

import (
	"testing"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/assert"
	"github.com/veldtgames/veldt/types"
)

type Shield struct {
	Strength int
}

func (Shield) Name() string { return "shield" }

type Burning struct {
	Stacks int
}

func (Burning) Name() string { return "burning" }

func newObserverWorld(t *testing.T) *veldt.World {
	t.Helper()
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	assert.NilError(t, veldt.RegisterComponent[Shield](w))
	assert.NilError(t, veldt.RegisterComponent[Burning](w))
	return w
}

func TestOnAddFiresOnFirstInsertOnly(t *testing.T) {
	w := newObserverWorld(t)
	added, changed := 0, 0
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, value Shield) {
		added++
		assert.Equal(t, value.Strength, 10)
	}))
	w.RegisterObserver(veldt.OnChange(func(_ *veldt.World, _ types.Entity, value Shield) {
		changed++
		assert.Equal(t, value.Strength, 20)
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{Strength: 10}))
	assert.Equal(t, added, 1)
	assert.Equal(t, changed, 0)

	assert.NilError(t, veldt.Insert(w, e, Shield{Strength: 20}))
	assert.Equal(t, added, 1)
	assert.Equal(t, changed, 1)
}

func TestUpdateFiresOnChange(t *testing.T) {
	w := newObserverWorld(t)
	var got []int
	w.RegisterObserver(veldt.OnChange(func(_ *veldt.World, _ types.Entity, value Shield) {
		got = append(got, value.Strength)
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{Strength: 1}))
	assert.NilError(t, veldt.Update(w, e, func(s *Shield) *Shield {
		s.Strength *= 3
		return s
	}))

	assert.DeepEqual(t, got, []int{3})
}

func TestOnRemoveSeesTheOutgoingValue(t *testing.T) {
	w := newObserverWorld(t)
	fired := 0
	w.RegisterObserver(veldt.OnRemove(func(w *veldt.World, e types.Entity, value Shield) {
		fired++
		assert.Equal(t, value.Strength, 5)
		// The component is still readable while the observer runs.
		current, ok := veldt.Get[Shield](w, e)
		assert.True(t, ok)
		assert.Equal(t, current.Strength, 5)
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{Strength: 5}))

	removed, ok := veldt.Remove[Shield](w, e)
	assert.True(t, ok)
	assert.Equal(t, removed.Strength, 5)
	assert.Equal(t, fired, 1)
	assert.False(t, veldt.Has[Shield](w, e))
}

func TestDespawnFiresOnRemovePerComponentInIDOrder(t *testing.T) {
	w := newObserverWorld(t)
	var order []string
	w.RegisterObserver(veldt.OnRemove(func(_ *veldt.World, _ types.Entity, _ Shield) {
		order = append(order, "shield")
	}))
	w.RegisterObserver(veldt.OnRemove(func(_ *veldt.World, _ types.Entity, _ Burning) {
		order = append(order, "burning")
	}))

	e, err := w.SpawnWith(Shield{Strength: 1}, Burning{Stacks: 2})
	assert.NilError(t, err)
	assert.True(t, w.Despawn(e))

	// Shield was registered before Burning, so its component ID is lower.
	assert.DeepEqual(t, order, []string{"shield", "burning"})
}

func TestObserversOnOneKeyRunInRegistrationOrder(t *testing.T) {
	w := newObserverWorld(t)
	var order []int
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Shield) {
		order = append(order, 1)
	}))
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Shield) {
		order = append(order, 2)
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{}))
	assert.DeepEqual(t, order, []int{1, 2})
}

func TestUnregisterStopsDispatch(t *testing.T) {
	w := newObserverWorld(t)
	fired := 0
	handle := w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Shield) {
		fired++
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{}))
	assert.Equal(t, fired, 1)

	assert.True(t, w.UnregisterObserver(handle))
	assert.False(t, w.UnregisterObserver(handle))

	other := w.Spawn()
	assert.NilError(t, veldt.Insert(w, other, Shield{}))
	assert.Equal(t, fired, 1)
}

func TestObserverCascades(t *testing.T) {
	w := newObserverWorld(t)
	victim := w.Spawn()

	var chain []string
	// Removing a shield ignites the victim, which in turn fires the OnAdd
	// observer below.
	w.RegisterObserver(veldt.OnRemove(func(w *veldt.World, _ types.Entity, _ Shield) {
		chain = append(chain, "shield_removed")
		assert.NilError(t, veldt.Insert(w, victim, Burning{Stacks: 1}))
	}))
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Burning) {
		chain = append(chain, "burning_added")
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{}))
	_, ok := veldt.Remove[Shield](w, e)
	assert.True(t, ok)

	assert.DeepEqual(t, chain, []string{"shield_removed", "burning_added"})
	assert.True(t, veldt.Has[Burning](w, victim))
}

func TestSpawnWithFiresOnAddPerComponent(t *testing.T) {
	w := newObserverWorld(t)
	var added []string
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Shield) {
		added = append(added, "shield")
	}))
	w.RegisterObserver(veldt.OnAdd(func(_ *veldt.World, _ types.Entity, _ Burning) {
		added = append(added, "burning")
	}))

	_, err := w.SpawnWith(Shield{}, Burning{})
	assert.NilError(t, err)
	assert.DeepEqual(t, added, []string{"shield", "burning"})
}

func TestRemoveObserverMayDespawnTheEntity(t *testing.T) {
	w := newObserverWorld(t)
	// Cascade depth is unbounded, so the observer guards its own recursion:
	// the despawn below re-fires this observer for the same component.
	despawned := false
	w.RegisterObserver(veldt.OnRemove(func(w *veldt.World, e types.Entity, _ Shield) {
		if despawned {
			return
		}
		despawned = true
		w.Despawn(e)
	}))

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, Shield{}))

	// The observer despawned the entity mid-removal, so the removal itself
	// reports absence.
	_, ok := veldt.Remove[Shield](w, e)
	assert.False(t, ok)
	assert.False(t, w.IsAlive(e))
}
