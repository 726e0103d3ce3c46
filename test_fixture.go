package veldt

import (
	"sync"
	"testing"
	"time"

	"github.com/veldtgames/veldt/appstage"
	"github.com/veldtgames/veldt/assert"
)

// TestFixture manages an App instance for tests, with ticks driven manually
// through DoTick. It automatically cleans up its resources at the end of the
// test.
type TestFixture struct {
	testing.TB
	*App

	TickTrigger chan time.Time
	tickDone    chan uint64

	doCleanup func()
	startOnce *sync.Once
}

// NewTestFixture creates a test fixture around a fresh App. The game loop
// only ticks when DoTick is called.
func NewTestFixture(t testing.TB, opts ...AppOption) *TestFixture {
	t.Setenv("VELDT_LOG_PRETTY", "true")

	tickTrigger, doneTickCh := make(chan time.Time), make(chan uint64)

	defaultOpts := []AppOption{
		WithTickChannel(tickTrigger),
		WithTickDoneChannel(doneTickCh),
	}

	// Default options go first so that any user supplied options overwrite
	// the defaults.
	app, err := NewApp(append(defaultOpts, opts...)...)
	assert.NilError(t, err)

	return &TestFixture{
		TB:  t,
		App: app,

		TickTrigger: tickTrigger,
		tickDone:    doneTickCh,

		startOnce: &sync.Once{},
		// Only registered with t.Cleanup once the game loop actually starts.
		doCleanup: func() {
			// First, make sure completed ticks will never be blocked.
			go func() {
				for range doneTickCh { //nolint:revive // This pattern drains the channel until closed
				}
			}()

			// Next, shut down the app.
			assert.NilError(t, app.Shutdown())

			// The app is shut down; no more ticks will be started.
			close(tickTrigger)
		},
	}
}

// StartWorld starts the game loop and registers a cleanup function that
// shuts the app down at the end of the test. Components, systems, and
// plugins must be registered before calling this.
func (f *TestFixture) StartWorld() {
	f.startOnce.Do(func() {
		startupError := make(chan error)
		go func() {
			// StartGame blocks until shutdown, so a return before the app
			// reaches Running is a startup failure.
			startupError <- f.App.StartGame()
		}()
		select {
		case <-f.App.appStage.NotifyOnStage(appstage.Running):
		case err := <-startupError:
			f.Fatalf("game failed to start: %v", err)
		}
		f.Cleanup(f.doCleanup)
	})
}

// DoTick executes one game tick and blocks until the tick is complete.
// StartWorld is automatically called if it was not called before the first
// tick.
func (f *TestFixture) DoTick() {
	f.StartWorld()
	f.TickTrigger <- time.Now()
	<-f.tickDone
}
