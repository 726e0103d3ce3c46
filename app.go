package veldt

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/veldtgames/veldt/appstage"
	veldtlog "github.com/veldtgames/veldt/log"
	"github.com/veldtgames/veldt/statsd"
	"github.com/veldtgames/veldt/telemetry"
	"github.com/veldtgames/veldt/types"
)

// App drives a World through the game loop: it owns the schedules, runs them
// once per tick, applies state transitions at tick start, and rotates the
// event buffers at tick end. Registration (systems, plugins, sets) must
// finish before Startup; after that the app only ticks.
type App struct {
	config *AppConfig
	world  *World

	appStage       *appstage.Manager
	initSchedule   *Schedule
	mainSchedule   *Schedule
	renderSchedule *Schedule

	// plugins in registration order; cleanups run in reverse.
	plugins     []Plugin
	cleanupOnce sync.Once

	telemetry *telemetry.Manager
	logger    zerolog.Logger
	prettyLog bool

	tickChannel     <-chan time.Time
	tickDoneChannel chan<- uint64
	// addChannelWaitingForNextTick accepts a channel which will be closed
	// after a tick has been completed.
	addChannelWaitingForNextTick chan chan struct{}
}

// NewApp creates an app and its World. Configuration comes from the
// environment (see AppConfig); invalid configuration fails here, never
// mid-tick. The hierarchy and debug plugins are registered on every app.
func NewApp(opts ...AppOption) (*App, error) {
	worldOpts, appOpts := separateOptions(opts)

	cfg, err := loadAppConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load app config")
	}

	app := &App{
		config:                       cfg,
		appStage:                     appstage.NewManager(),
		initSchedule:                 NewSchedule("init", []Stage{StageInit}),
		mainSchedule:                 NewMainSchedule(),
		renderSchedule:               NewRenderSchedule(),
		addChannelWaitingForNextTick: make(chan chan struct{}),
	}
	for _, opt := range appOpts {
		opt(app)
	}

	// Validate already vetted the level string.
	level, err := zerolog.ParseLevel(cfg.VeldtLogLevel)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", cfg.VeldtLogLevel)
	}
	logger := zlog.Logger.Level(level)
	if app.prettyLog || cfg.VeldtLogPretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	app.logger = logger.With().Str("namespace", cfg.VeldtNamespace).Logger()

	app.logger.Info().Msgf("Creating a new app in %s mode", cfg.VeldtMode)

	worldOpts = append([]WorldOption{
		WithNamespace(cfg.VeldtNamespace),
		WithWorldLogger(&app.logger),
	}, worldOpts...)
	world, err := NewWorld(worldOpts...)
	if err != nil {
		return nil, err
	}
	app.world = world

	if app.tickChannel == nil {
		//nolint:staticcheck // its ok.
		app.tickChannel = time.Tick(time.Second / time.Duration(cfg.VeldtTickRate))
	}

	app.RegisterPlugin(newHierarchyPlugin())
	app.RegisterPlugin(newDebugPlugin())

	metricTags := []string{
		"veldt_mode:" + string(cfg.VeldtMode),
		"veldt_namespace:" + cfg.VeldtNamespace,
	}
	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, metricTags); err != nil {
			return nil, eris.Wrap(err, "unable to init statsd")
		}
	} else {
		app.logger.Warn().Msg("statsd is disabled")
	}

	app.telemetry, err = telemetry.New(cfg.TelemetryTraceEnabled, cfg.TelemetryProfilerEnabled)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize telemetry")
	}

	return app, nil
}

// World returns the world the app drives.
func (a *App) World() *World {
	return a.world
}

// CurrentTick returns the tick currently being executed.
func (a *App) CurrentTick() types.Tick {
	return a.world.CurrentTick()
}

// Namespace returns the app's namespace.
func (a *App) Namespace() string {
	return a.world.Namespace()
}

// RegisterPlugin builds the plugin against the app immediately. A plugin that
// fails to build is unusable configuration, so the failure is fatal.
func (a *App) RegisterPlugin(plugin Plugin) {
	if err := plugin.Build(a); err != nil {
		a.logger.Fatal().Err(err).Msgf("failed to build plugin: %v", err)
	}
	a.plugins = append(a.plugins, plugin)
}

// AddSystem registers a system in the given stage of the main schedule.
func (a *App) AddSystem(stage Stage, system System, opts ...SystemOption) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	return a.mainSchedule.AddSystem(stage, system, opts...)
}

// AddSystems registers systems in the given stage of the main schedule, in
// order, with no per-system options.
func (a *App) AddSystems(stage Stage, systems ...System) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	return a.mainSchedule.AddSystems(stage, systems...)
}

// AddInitSystems registers systems that run exactly once, before the first
// tick.
func (a *App) AddInitSystems(systems ...System) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	return a.initSchedule.AddSystems(StageInit, systems...)
}

// AddRenderSystem registers a system in the given stage of the render
// schedule, which runs after the main schedule within each tick once any
// render system is registered.
func (a *App) AddRenderSystem(stage Stage, system System, opts ...SystemOption) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	return a.renderSchedule.AddSystem(stage, system, opts...)
}

// ConfigureSet declares ordering constraints for a set on the main schedule.
func (a *App) ConfigureSet(name string, opts ...SetOption) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	a.mainSchedule.ConfigureSet(name, opts...)
	return nil
}

// ConfigureRenderSet declares ordering constraints for a set on the render
// schedule.
func (a *App) ConfigureRenderSet(name string, opts ...SetOption) error {
	if err := a.mustNotBeStarted(); err != nil {
		return err
	}
	a.renderSchedule.ConfigureSet(name, opts...)
	return nil
}

func (a *App) mustNotBeStarted() error {
	if current := a.appStage.Current(); current != appstage.Init {
		return eris.Errorf("cannot register after startup (app stage: %s)", current)
	}
	return nil
}

// GetRegisteredComponents returns the metadata of every registered component.
func (a *App) GetRegisteredComponents() []types.ComponentMetadata {
	return a.world.GetRegisteredComponents()
}

// GetRegisteredSystems returns the names of every registered system: init
// systems first, then the main schedule, then the render schedule.
func (a *App) GetRegisteredSystems() []string {
	names := a.initSchedule.GetSystemNames()
	names = append(names, a.mainSchedule.GetSystemNames()...)
	names = append(names, a.renderSchedule.GetSystemNames()...)
	return names
}

// Startup moves the app from Init to Ready: it builds the schedules,
// surfacing set-ordering mistakes, and runs the init systems once.
// Registration is rejected from this point on.
func (a *App) Startup() error {
	if ok := a.appStage.CompareAndSwap(appstage.Init, appstage.Starting); !ok {
		return eris.New("app has already been started")
	}

	if err := a.initSchedule.Build(); err != nil {
		return err
	}
	if err := a.mainSchedule.Build(); err != nil {
		return err
	}
	if err := a.renderSchedule.Build(); err != nil {
		return err
	}

	if len(a.world.GetRegisteredComponents()) == 0 {
		a.logger.Warn().Msg("No components registered")
	}
	if !a.mainSchedule.IsSystemsRegistered() {
		a.logger.Warn().Msg("No systems registered")
	}

	veldtlog.World(&a.logger, a, zerolog.InfoLevel)

	if a.initSchedule.IsSystemsRegistered() {
		if err := a.initSchedule.Run(a.world); err != nil {
			return eris.Wrap(err, "init system failed")
		}
	}

	a.appStage.Store(appstage.Ready)
	return nil
}

// StartGame starts the game loop and blocks until the app has shut down,
// either by Shutdown, a termination signal, or a failed tick. Startup runs
// first if the caller has not done so.
func (a *App) StartGame() error {
	if a.appStage.Current() == appstage.Init {
		if err := a.Startup(); err != nil {
			return err
		}
	}
	if ok := a.appStage.CompareAndSwap(appstage.Ready, appstage.Running); !ok {
		return eris.Errorf("cannot start game from app stage %s", a.appStage.Current())
	}

	a.StartGameLoop(context.Background(), a.tickChannel, a.tickDoneChannel)
	a.handleShutdown()
	<-a.appStage.NotifyOnStage(appstage.ShutDown)
	a.cleanup()
	return nil
}

// StartGameLoop starts the game loop in the background. Each message on
// tickStart attempts one tick; the completed tick number is sent on tickDone
// when it is set. The loop exits when the app begins shutting down, closing
// tickDone on the way out.
func (a *App) StartGameLoop(ctx context.Context, tickStart <-chan time.Time, tickDone chan<- uint64) {
	a.appStage.CompareAndSwap(appstage.Ready, appstage.Running)
	a.logger.Info().Msg("Game loop started")
	go func() {
		shuttingDown := a.appStage.NotifyOnStage(appstage.ShuttingDown)
		var waitingChs []chan struct{}
	loop:
		for {
			select {
			case _, ok := <-tickStart:
				if !ok {
					panic("tick channel has been closed; tick rate is now unbounded")
				}
				a.tickTheEngine(ctx, tickDone)
				closeAllChannels(waitingChs)
				waitingChs = waitingChs[:0]
			case <-shuttingDown:
				a.drainChannelsWaitingForNextTick()
				closeAllChannels(waitingChs)
				if tickDone != nil {
					close(tickDone)
				}
				break loop
			case ch := <-a.addChannelWaitingForNextTick:
				waitingChs = append(waitingChs, ch)
			}
		}
		a.appStage.Store(appstage.ShutDown)
	}()
}

// tickTheEngine performs one tick. A failed tick does not crash the process;
// it logs the full error trace and moves the app into shutdown, so the
// blocking StartGame call returns.
func (a *App) tickTheEngine(ctx context.Context, tickDone chan<- uint64) {
	currTick := uint64(a.world.CurrentTick())
	err := a.doTick(ctx, uint64(time.Now().Unix()))
	if err != nil {
		a.logger.Error().Msgf("tick %d failed: %s", currTick, eris.ToString(err, true))
		a.appStage.CompareAndSwap(appstage.Running, appstage.ShuttingDown)
		return
	}
	if tickDone != nil {
		tickDone <- currTick
	}
}

// doTick performs one game tick: state transitions first, then the main
// schedule, the render schedule when populated, and finally the event buffer
// swap and the tick advance.
func (a *App) doTick(ctx context.Context, timestamp uint64) (err error) {
	startTime := time.Now()

	// Ticking is legal while running and during the shutdown drain.
	if current := a.appStage.Current(); current != appstage.Running && current != appstage.ShuttingDown {
		return eris.Errorf("invalid app stage to tick: %s", current)
	}

	defer a.handleTickPanic(&err)

	span, _ := tracer.StartSpanFromContext(ctx, "veldt.span.tick")
	defer span.Finish()

	a.logger.Debug().Int("tick", int(a.world.CurrentTick())).Msg("Tick started")

	a.world.timestamp.Store(timestamp)
	a.world.applyStateTransitions()

	if err := a.mainSchedule.Run(a.world); err != nil {
		return err
	}
	if a.renderSchedule.IsSystemsRegistered() {
		if err := a.renderSchedule.Run(a.world); err != nil {
			return err
		}
	}

	flushEventsStart := time.Now()
	a.world.FlushEvents()
	statsd.EmitTickStat(flushEventsStart, "flush_events")

	a.world.AdvanceTick()

	statsd.EmitTickStat(startTime, "full_tick")
	return nil
}

// handleTickPanic converts a panicking system into a tick error, recording
// the tick and the system that was running when it blew up.
func (a *App) handleTickPanic(err *error) {
	if r := recover(); r != nil {
		a.logger.Error().
			Int("tick", int(a.world.CurrentTick())).
			Str("system", a.mainSchedule.GetCurrentSystem()).
			Msgf("tick panicked: %v", r)
		*err = eris.Errorf("tick %d panicked in system %s: %v",
			a.world.CurrentTick(), a.mainSchedule.GetCurrentSystem(), r)
	}
}

// IsGameRunning reports whether the game loop is ticking.
func (a *App) IsGameRunning() bool {
	return a.appStage.Current() == appstage.Running
}

// Shutdown stops the game loop and blocks until it has exited, then unwinds
// the plugins in reverse registration order and closes the metric and
// telemetry clients. Shutting down an already stopped app is a no-op.
func (a *App) Shutdown() error {
	if a.appStage.Current() == appstage.ShutDown {
		return nil
	}
	a.logger.Info().Msg("Shutting down game loop")
	ok := a.appStage.CompareAndSwap(appstage.Running, appstage.ShuttingDown)
	if !ok {
		select {
		case <-a.appStage.NotifyOnStage(appstage.ShuttingDown):
			// Some other goroutine has already started the shutdown process.
			// Wait until the app is actually shut down.
			<-a.appStage.NotifyOnStage(appstage.ShutDown)
			a.cleanup()
			return nil
		default:
		}
		return eris.New("shutdown attempted before the game was started")
	}

	// Block until the app has stopped ticking.
	<-a.appStage.NotifyOnStage(appstage.ShutDown)
	a.cleanup()
	a.logger.Info().Msg("Successfully shut down game loop")
	return nil
}

func (a *App) cleanup() {
	a.cleanupOnce.Do(func() {
		for i := len(a.plugins) - 1; i >= 0; i-- {
			if err := a.plugins[i].Cleanup(a); err != nil {
				a.logger.Error().Err(err).Msg("plugin cleanup failed")
			}
		}
		if err := a.telemetry.Shutdown(); err != nil {
			a.logger.Error().Err(err).Msg("telemetry shutdown failed")
		}
		if err := statsd.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close statsd client")
		}
	})
}

// handleShutdown shuts the app down when the process receives an interrupt or
// termination signal.
func (a *App) handleShutdown() {
	signalChannel := make(chan os.Signal, 1)
	go func() {
		signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
		for sig := range signalChannel {
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				if err := a.Shutdown(); err != nil {
					a.logger.Err(err).Msg("There was an error during shutdown")
				}
				return
			}
		}
	}()
}

// WaitForNextTick blocks until at least one game tick has completed. It
// returns false when the app shut down while waiting.
func (a *App) WaitForNextTick() (success bool) {
	startTick := a.world.CurrentTick()
	ch := make(chan struct{})
	a.addChannelWaitingForNextTick <- ch
	<-ch
	return a.world.CurrentTick() > startTick
}

// drainChannelsWaitingForNextTick continually closes any channels that are
// added to the addChannelWaitingForNextTick channel. This is used when the
// engine is shut down; it ensures any calls to WaitForNextTick that happen
// after a shutdown will not block.
func (a *App) drainChannelsWaitingForNextTick() {
	go func() {
		for ch := range a.addChannelWaitingForNextTick {
			close(ch)
		}
	}()
}

func closeAllChannels(chs []chan struct{}) {
	for _, ch := range chs {
		close(ch)
	}
}
