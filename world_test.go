package veldt_test

import (
	"testing"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/assert"
	"github.com/veldtgames/veldt/types"
)

type Foo struct{}

func (Foo) Name() string { return "foo" }

type Bar struct {
	Value int
}

func (Bar) Name() string { return "bar" }

func TestSpawnAndDespawnLifecycle(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	e := w.Spawn()
	assert.True(t, w.IsAlive(e))
	assert.Equal(t, w.EntityCount(), 1)

	assert.True(t, w.Despawn(e))
	assert.False(t, w.IsAlive(e))
	assert.Equal(t, w.EntityCount(), 0)

	// Despawning a handle twice is a legal no-op.
	assert.False(t, w.Despawn(e))
	assert.False(t, w.Despawn(types.Nil))
}

func TestStaleHandleStaysDeadAfterSlotReuse(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	first := w.Spawn()
	assert.True(t, w.Despawn(first))

	second := w.Spawn()
	assert.Equal(t, second.ID, first.ID)
	assert.Equal(t, second.Generation, first.Generation+1)
	assert.False(t, w.IsAlive(first))
	assert.True(t, w.IsAlive(second))

	// Component reads through the stale handle miss as well.
	assert.NilError(t, veldt.Insert(w, second, Bar{Value: 1}))
	_, ok := veldt.Get[Bar](w, first)
	assert.False(t, ok)
}

func TestSpawnWithRequiresRegisteredComponents(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	_, err = w.SpawnWith(Bar{Value: 3})
	assert.ErrorIs(t, err, veldt.ErrComponentNotRegistered)

	assert.NilError(t, veldt.RegisterComponent[Bar](w))
	assert.NilError(t, veldt.RegisterComponent[Foo](w))
	e, err := w.SpawnWith(Bar{Value: 3}, Foo{})
	assert.NilError(t, err)

	bar, ok := veldt.Get[Bar](w, e)
	assert.True(t, ok)
	assert.Equal(t, bar.Value, 3)
	assert.True(t, veldt.Has[Foo](w, e))

	// The entity lands directly in the two-component archetype; only it and
	// the empty archetype exist.
	assert.Equal(t, w.ArchetypeCount(), 2)
}

func TestClearEntitiesKeepsResourcesAndArchetypes(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	assert.NilError(t, veldt.RegisterComponent[Bar](w))

	e, err := w.SpawnWith(Bar{Value: 1})
	assert.NilError(t, err)
	veldt.InsertResource(w, Bar{Value: 9})
	archCount := w.ArchetypeCount()

	w.ClearEntities()

	assert.Equal(t, w.EntityCount(), 0)
	assert.False(t, w.IsAlive(e))
	assert.Equal(t, w.ArchetypeCount(), archCount)

	res, ok := veldt.GetResource[Bar](w)
	assert.True(t, ok)
	assert.Equal(t, res.Value, 9)
}

func TestWorldNamespace(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	assert.Equal(t, w.Namespace(), veldt.DefaultNamespace)

	w, err = veldt.NewWorld(veldt.WithNamespace("my-game_01"))
	assert.NilError(t, err)
	assert.Equal(t, w.Namespace(), "my-game_01")

	_, err = veldt.NewWorld(veldt.WithNamespace("has spaces"))
	assert.IsError(t, err)
	_, err = veldt.NewWorld(veldt.WithNamespace(""))
	assert.IsError(t, err)
}

func TestAdvanceTick(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)
	assert.Equal(t, w.CurrentTick(), types.Tick(0))

	w.AdvanceTick()
	w.AdvanceTick()
	assert.Equal(t, w.CurrentTick(), types.Tick(2))
}
