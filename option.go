package veldt

import (
	"time"
)

// AppOption represents an option that can be used to augment how the App will
// be constructed and run.
type AppOption struct {
	worldOption WorldOption
	appOption   func(*App)
}

// WithTickChannel sets the channel that decides when a tick executes. If
// unset, a ticker at the configured tick rate drives the loop. Tests can pass
// in a channel they control for fine-grained control over when ticks run.
func WithTickChannel(ch <-chan time.Time) AppOption {
	return AppOption{
		appOption: func(app *App) {
			app.tickChannel = ch
		},
	}
}

// WithTickDoneChannel sets a channel that is notified each time a tick
// completes, receiving the completed tick number. Useful in tests when
// assertions need to run at the end of a tick. The channel is closed when the
// game loop stops.
func WithTickDoneChannel(ch chan<- uint64) AppOption {
	return AppOption{
		appOption: func(app *App) {
			app.tickDoneChannel = ch
		},
	}
}

// WithPrettyLog switches the app logger to human-readable console output
// instead of JSON.
func WithPrettyLog() AppOption {
	return AppOption{
		appOption: func(app *App) {
			app.prettyLog = true
		},
	}
}

// WithEntityCapacity preallocates slots for capacity entities on the app's
// world, so an initial spawn burst does not grow the entity index.
func WithEntityCapacity(capacity int) AppOption {
	return AppOption{
		worldOption: func(w *World) {
			w.store.Reserve(capacity)
		},
	}
}

func separateOptions(opts []AppOption) (worldOpts []WorldOption, appOpts []func(*App)) {
	for _, opt := range opts {
		if opt.worldOption != nil {
			worldOpts = append(worldOpts, opt.worldOption)
		}
		if opt.appOption != nil {
			appOpts = append(appOpts, opt.appOption)
		}
	}
	return worldOpts, appOpts
}
