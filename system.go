package veldt

import (
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/veldtgames/veldt/types"
)

// System is a unit of game logic run by the scheduler. Systems receive a
// WorldContext scoped to the running tick and return an error to abort the
// tick; recoverable conditions should be handled inside the system.
type System func(ctx WorldContext) error

// WorldContext is the view of the engine a system works through. Besides the
// raw World it carries a per-system logger and a Commands queue the scheduler
// applies as soon as the system returns.
type WorldContext interface {
	// World returns the world the schedule is running against.
	World() *World
	// CurrentTick returns the tick being executed.
	CurrentTick() types.Tick
	// Timestamp returns the unix time recorded at the start of the tick.
	Timestamp() uint64
	// Namespace returns the world's namespace.
	Namespace() string
	// Logger returns the logger, tagged with the running system's name.
	Logger() *zerolog.Logger
	// Commands returns the deferred mutation queue. Queued operations are
	// applied when the current system returns.
	Commands() *Commands
	// SetLogger replaces the context logger, for systems that want extra
	// fields on everything they log.
	SetLogger(logger zerolog.Logger)
}

type worldContext struct {
	world    *World
	logger   *zerolog.Logger
	commands *Commands
}

func newWorldContext(w *World) *worldContext {
	return &worldContext{
		world:    w,
		logger:   w.logger,
		commands: NewCommands(),
	}
}

func (ctx *worldContext) World() *World {
	return ctx.world
}

func (ctx *worldContext) CurrentTick() types.Tick {
	return ctx.world.CurrentTick()
}

func (ctx *worldContext) Timestamp() uint64 {
	return ctx.world.Timestamp()
}

func (ctx *worldContext) Namespace() string {
	return ctx.world.Namespace()
}

func (ctx *worldContext) Logger() *zerolog.Logger {
	return ctx.logger
}

func (ctx *worldContext) Commands() *Commands {
	return ctx.commands
}

func (ctx *worldContext) SetLogger(logger zerolog.Logger) {
	ctx.logger = &logger
}

// systemEntry is one registered system plus its scheduling configuration.
type systemEntry struct {
	name  string
	fn    System
	stage Stage
	// set is the ordering set the system belongs to. Unset systems get an
	// implicit singleton set pinned at their insertion position.
	set            string
	conditions     []RunCondition
	reads          []string
	writes         []string
	resourceReads  []string
	resourceWrites []string
	// insertIdx is the registration position within the stage, used to keep
	// ordering deterministic among unconstrained systems.
	insertIdx int
}

// SystemMeta describes a registered system. The read/write declarations are
// informational: execution is sequential, so they feed logs and tooling, not
// the scheduler.
type SystemMeta struct {
	Name           string
	Stage          Stage
	Set            string
	Reads          []string
	Writes         []string
	ResourceReads  []string
	ResourceWrites []string
}

// SystemOption configures a system at registration.
type SystemOption func(*systemEntry)

// WithSystemName overrides the reflection-derived system name.
func WithSystemName(name string) SystemOption {
	return func(e *systemEntry) {
		e.name = name
	}
}

// InSet places the system in the named ordering set.
func InSet(set string) SystemOption {
	return func(e *systemEntry) {
		e.set = set
	}
}

// RunIf gates the system on the given conditions, evaluated immediately
// before each run. All must pass; a skipped system has no effect on the tick.
func RunIf(conditions ...RunCondition) SystemOption {
	return func(e *systemEntry) {
		e.conditions = append(e.conditions, conditions...)
	}
}

// WithReads declares the component names the system reads.
func WithReads(componentNames ...string) SystemOption {
	return func(e *systemEntry) {
		e.reads = append(e.reads, componentNames...)
	}
}

// WithWrites declares the component names the system writes.
func WithWrites(componentNames ...string) SystemOption {
	return func(e *systemEntry) {
		e.writes = append(e.writes, componentNames...)
	}
}

// WithResourceReads declares the resource types the system reads.
func WithResourceReads(resourceNames ...string) SystemOption {
	return func(e *systemEntry) {
		e.resourceReads = append(e.resourceReads, resourceNames...)
	}
}

// WithResourceWrites declares the resource types the system writes.
func WithResourceWrites(resourceNames ...string) SystemOption {
	return func(e *systemEntry) {
		e.resourceWrites = append(e.resourceWrites, resourceNames...)
	}
}

// systemName derives a human-readable name from the function symbol.
func systemName(fn System) string {
	return filepath.Base(runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name())
}
