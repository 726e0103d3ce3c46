package veldt_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/assert"
	"github.com/veldtgames/veldt/types"
)

type debugMarker struct {
	Hits int
}

func (debugMarker) Name() string { return "debug_marker" }

func seedWorldSystem(ctx veldt.WorldContext) error {
	_, err := ctx.World().SpawnWith()
	return err
}

func TestTicksAdvanceTheWorldClock(t *testing.T) {
	f := veldt.NewTestFixture(t, veldt.WithEntityCapacity(256))
	assert.Equal(t, f.CurrentTick(), types.Tick(0))
	assert.Equal(t, f.Namespace(), "veldt-game")

	f.DoTick()
	f.DoTick()
	f.DoTick()
	assert.Equal(t, f.CurrentTick(), types.Tick(3))
	assert.True(t, f.IsGameRunning())
}

func TestInitSystemsRunOnceBeforeTheFirstTick(t *testing.T) {
	f := veldt.NewTestFixture(t)

	initRuns := 0
	initTick := types.Tick(99)
	err := f.AddInitSystems(func(ctx veldt.WorldContext) error {
		initRuns++
		initTick = ctx.CurrentTick()
		return nil
	})
	assert.NilError(t, err)

	f.DoTick()
	f.DoTick()
	assert.Equal(t, initRuns, 1)
	assert.Equal(t, initTick, types.Tick(0))
}

func TestRegistrationClosesAtStartup(t *testing.T) {
	f := veldt.NewTestFixture(t)
	f.StartWorld()

	assert.ErrorContains(t, f.AddSystem(veldt.StageUpdate, noopSystem), "cannot register after startup")
	assert.ErrorContains(t, f.AddSystems(veldt.StageUpdate, noopSystem), "cannot register after startup")
	assert.ErrorContains(t, f.AddInitSystems(noopSystem), "cannot register after startup")
	assert.ErrorContains(t, f.AddRenderSystem(veldt.StageExtract, noopSystem), "cannot register after startup")
	assert.ErrorContains(t, f.ConfigureSet("movement"), "cannot register after startup")
	assert.ErrorContains(t, f.ConfigureRenderSet("extraction"), "cannot register after startup")
}

func TestRenderScheduleRunsAfterTheMainSchedule(t *testing.T) {
	f := veldt.NewTestFixture(t)

	var order []string
	assert.NilError(t, f.AddSystem(veldt.StageLast,
		recording(&order, "main_last"), veldt.WithSystemName("main_last")))
	assert.NilError(t, f.AddRenderSystem(veldt.StageExtract,
		recording(&order, "extract"), veldt.WithSystemName("extract")))
	assert.NilError(t, f.AddRenderSystem(veldt.StageRender,
		recording(&order, "draw"), veldt.WithSystemName("draw")))

	f.DoTick()
	assert.DeepEqual(t, order, []string{"main_last", "extract", "draw"})
}

func TestGetRegisteredSystemsSpansAllSchedules(t *testing.T) {
	f := veldt.NewTestFixture(t)

	assert.NilError(t, f.AddInitSystems(seedWorldSystem))
	assert.NilError(t, f.AddSystem(veldt.StageUpdate, noopSystem, veldt.WithSystemName("main_sys")))
	assert.NilError(t, f.AddRenderSystem(veldt.StageQueue, noopSystem, veldt.WithSystemName("render_sys")))

	// The debug plugin contributes its snapshot system to the main schedule.
	assert.DeepEqual(t, f.GetRegisteredSystems(), []string{
		"veldt_test.seedWorldSystem",
		"main_sys",
		"veldt.debugSnapshotSystem",
		"render_sys",
	})
}

func TestFailingSystemShutsTheLoopDown(t *testing.T) {
	f := veldt.NewTestFixture(t)
	err := f.AddSystem(veldt.StageUpdate,
		func(veldt.WorldContext) error {
			return eris.New("tick exploded")
		},
		veldt.WithSystemName("exploding"),
	)
	assert.NilError(t, err)

	f.DoTick()
	assert.False(t, f.IsGameRunning())
	// The failed tick never completed.
	assert.Equal(t, f.CurrentTick(), types.Tick(0))
	assert.False(t, f.WaitForNextTick())
}

func TestPanickingSystemBecomesATickError(t *testing.T) {
	f := veldt.NewTestFixture(t)
	err := f.AddSystem(veldt.StageUpdate,
		func(veldt.WorldContext) error {
			panic("boom")
		},
		veldt.WithSystemName("panicky"),
	)
	assert.NilError(t, err)

	f.DoTick()
	assert.False(t, f.IsGameRunning())
	assert.Equal(t, f.CurrentTick(), types.Tick(0))
}

func TestCanWaitForNextTick(t *testing.T) {
	f := veldt.NewTestFixture(t)
	f.DoTick()

	waitForNextTickDone := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			success := f.WaitForNextTick()
			assert.Check(t, success)
		}
		close(waitForNextTickDone)
	}()

	testTimeout := time.After(5 * time.Second)
	for {
		select {
		case <-waitForNextTickDone:
			// The goroutine successfully waited multiple times.
			return
		case <-testTimeout:
			t.Fatal("timed out waiting for WaitForNextTick")
		default:
			f.DoTick()
		}
	}
}

func TestCannotWaitForNextTickAfterShutdown(t *testing.T) {
	f := veldt.NewTestFixture(t)
	f.DoTick()
	assert.NilError(t, f.Shutdown())

	for i := 0; i < 10; i++ {
		// After shutdown, WaitForNextTick never blocks and always fails.
		assert.Check(t, !f.WaitForNextTick())
	}
}

func TestShutdownBeforeStartFails(t *testing.T) {
	app, err := veldt.NewApp()
	assert.NilError(t, err)
	assert.ErrorContains(t, app.Shutdown(), "shutdown attempted before the game was started")
}

func TestNewAppRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("VELDT_MODE", "staging")
	_, err := veldt.NewApp()
	assert.ErrorContains(t, err, "VELDT_MODE")
}

func TestDebugStateSnapshotsWhenEnabled(t *testing.T) {
	f := veldt.NewTestFixture(t)
	w := f.World()

	e := w.Spawn()
	assert.NilError(t, veldt.Insert(w, e, debugMarker{Hits: 7}))

	f.DoTick()
	ds, ok := veldt.GetResource[veldt.DebugState](w)
	assert.True(t, ok)
	// Disabled by default: no snapshot was taken.
	assert.Len(t, ds.State, 0)

	ds.Enabled = true
	f.DoTick()
	assert.Equal(t, ds.Tick, types.Tick(1))
	assert.Len(t, ds.State, 1)
	assert.Equal(t, ds.State[0].Entity, e)

	raw, ok := ds.State[0].Components["debug_marker"]
	assert.True(t, ok)
	var m debugMarker
	assert.NilError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, m.Hits, 7)

	// Disabling freezes the last snapshot.
	ds.Enabled = false
	f.DoTick()
	assert.Equal(t, ds.Tick, types.Tick(1))
}

func TestMovementSystemEndToEnd(t *testing.T) {
	f := veldt.NewTestFixture(t)
	w := f.World()

	assert.NilError(t, veldt.RegisterComponent[Position](w))
	assert.NilError(t, veldt.RegisterComponent[Velocity](w))

	mover, err := w.SpawnWith(Position{}, Velocity{DX: 1, DY: 2})
	assert.NilError(t, err)
	static, err := w.SpawnWith(Position{X: 5, Y: 5})
	assert.NilError(t, err)

	err = f.AddSystem(veldt.StageUpdate,
		func(ctx veldt.WorldContext) error {
			var sysErr error
			veldt.NewQuery2[Position, Velocity](ctx.World()).Each(
				func(e types.Entity, p *Position, v *Velocity) bool {
					next := Position{X: p.X + v.DX, Y: p.Y + v.DY}
					if err := veldt.Insert(ctx.World(), e, next); err != nil {
						sysErr = err
						return false
					}
					return true
				})
			return sysErr
		},
		veldt.WithSystemName("movement"),
	)
	assert.NilError(t, err)

	f.DoTick()
	f.DoTick()
	f.DoTick()

	pos, ok := veldt.Get[Position](w, mover)
	assert.True(t, ok)
	assert.Equal(t, *pos, Position{X: 3, Y: 6})

	// Entities without a velocity never move.
	staticPos, ok := veldt.Get[Position](w, static)
	assert.True(t, ok)
	assert.Equal(t, *staticPos, Position{X: 5, Y: 5})
}

func TestDespawnedChildrenLeaveTheirParentsList(t *testing.T) {
	f := veldt.NewTestFixture(t)
	w := f.World()

	parent := w.Spawn()
	c1 := w.Spawn()
	c2 := w.Spawn()
	assert.NilError(t, veldt.SetParent(w, c1, parent))
	assert.NilError(t, veldt.SetParent(w, c2, parent))

	// A plain Despawn, not the hierarchy helpers: the app's hierarchy plugin
	// must clean up the parent's list.
	assert.True(t, w.Despawn(c1))
	assert.DeepEqual(t, veldt.GetChildren(w, parent), []types.Entity{c2})

	assert.True(t, w.Despawn(c2))
	assert.Len(t, veldt.GetChildren(w, parent), 0)
	assert.False(t, veldt.Has[veldt.Children](w, parent))
}
