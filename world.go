// Package veldt is an archetype-based entity component system. Entities are
// generational handles into columnar archetype tables, component mutations
// carry tick stamps for change detection and dispatch observers synchronously,
// and systems run single-threaded through staged, set-ordered schedules.
package veldt

import (
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veldtgames/veldt/component"
	"github.com/veldtgames/veldt/events"
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/search"
	"github.com/veldtgames/veldt/storage"
	"github.com/veldtgames/veldt/types"
)

// World owns all entity, component, resource, and observer state. A World is
// not safe for concurrent use; the scheduler runs systems against it
// sequentially and observers run inline on the mutating call.
type World struct {
	id        uuid.UUID
	namespace Namespace

	registry  *component.Registry
	store     *storage.Store
	resources map[reflect.Type]any
	observers *observerRegistry
	events    *events.Bus

	tick      *atomic.Uint64
	timestamp *atomic.Uint64

	logger *zerolog.Logger
}

// WorldOption adjusts a World at construction.
type WorldOption func(*World)

// WithNamespace overrides the world's namespace.
func WithNamespace(namespace string) WorldOption {
	return func(w *World) {
		w.namespace = Namespace(namespace)
	}
}

// WithWorldLogger replaces the base logger the world derives system and
// entity logs from.
func WithWorldLogger(logger *zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// NewWorld creates an empty world. The zero tick is the first tick.
func NewWorld(opts ...WorldOption) (*World, error) {
	w := &World{
		id:        uuid.New(),
		namespace: Namespace(DefaultNamespace),
		registry:  component.NewRegistry(),
		store:     storage.NewStore(),
		resources: map[reflect.Type]any{},
		observers: newObserverRegistry(),
		events:    events.NewBus(),
		tick:      new(atomic.Uint64),
		timestamp: new(atomic.Uint64),
		logger:    &log.Logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.namespace.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid world namespace")
	}
	w.logger.Debug().
		Str("world_id", w.id.String()).
		Str("namespace", w.namespace.String()).
		Msg("World created")
	return w, nil
}

// Namespace returns the world's namespace.
func (w *World) Namespace() string {
	return string(w.namespace)
}

// CurrentTick returns the tick currently being executed.
func (w *World) CurrentTick() types.Tick {
	return types.Tick(w.tick.Load())
}

// AdvanceTick moves the world to the next tick. The App calls this once per
// completed tick; headless worlds (tests, tools) drive it directly.
func (w *World) AdvanceTick() {
	w.tick.Add(1)
}

// Timestamp returns the unix time recorded at the start of the current tick.
func (w *World) Timestamp() uint64 {
	return w.timestamp.Load()
}

// Spawn creates a live entity with no components, placing it in the empty
// archetype. Components are attached afterwards with Insert.
func (w *World) Spawn() types.Entity {
	e, err := w.store.Spawn(w.CurrentTick(), nil, nil)
	if err != nil {
		// The empty archetype always exists, so this cannot fail.
		panic(err)
	}
	return e
}

// SpawnWith creates a live entity carrying the given components, placed
// directly in the matching archetype with no intermediate migrations. The
// component types must already be registered; the typed Insert path registers
// on first use. OnAdd observers fire per component once the entity is placed.
func (w *World) SpawnWith(components ...types.Component) (e types.Entity, err error) {
	defer func() { panicOnFatalError(w, err) }()

	ids := make([]types.ComponentID, len(components))
	values := make([]any, len(components))
	for i, comp := range components {
		meta, err := w.registry.GetComponentByName(comp.Name())
		if err != nil {
			return types.Nil, err
		}
		ids[i] = meta.ID()
		values[i] = comp
	}
	e, err = w.store.Spawn(w.CurrentTick(), ids, values)
	if err != nil {
		return types.Nil, err
	}
	for _, comp := range components {
		w.observers.dispatch(w, TriggerOnAdd, comp.Name(), e, comp)
	}
	w.logger.Debug().
		Str("entity", e.String()).
		Int("component_count", len(components)).
		Msg("Entity created")
	return e, nil
}

// Despawn removes the entity and everything on it. OnRemove observers fire
// for each component, in ascending component ID order, while the values are
// still readable. Stale and Nil handles report false with no side effects.
func (w *World) Despawn(e types.Entity) bool {
	ids, ok := w.store.ComponentIDsFor(e)
	if !ok {
		return false
	}
	for _, id := range ids {
		meta, err := w.registry.GetComponentByID(id)
		if err != nil || !w.observers.watches(meta.Name()) {
			continue
		}
		// An earlier observer may have already despawned the entity or
		// removed this component.
		value, ok := w.store.Value(e, id)
		if !ok {
			continue
		}
		w.observers.dispatch(w, TriggerOnRemove, meta.Name(), e, value)
	}
	// False here means an observer already despawned the entity; it was alive
	// at call time either way.
	w.store.Despawn(e)
	return true
}

// IsAlive reports whether the handle resolves to a live entity.
func (w *World) IsAlive(e types.Entity) bool {
	return w.store.IsAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.store.EntityCount()
}

// ArchetypeCount returns how many archetypes have been created. Archetypes
// are never destroyed, even when emptied.
func (w *World) ArchetypeCount() int {
	return w.store.ArchetypeCount()
}

// ResourceCount returns the number of resources currently stored.
func (w *World) ResourceCount() int {
	return len(w.resources)
}

// ClearEntities despawns every entity and drops all buffered events while
// preserving resources, observers, and archetype definitions. Handles issued
// before the clear stay invalid forever.
func (w *World) ClearEntities() {
	w.store.ClearEntities()
	w.events.Clear()
	w.logger.Debug().Str("world_id", w.id.String()).Msg("All entities cleared")
}

// Search returns a search over entities matching the filter. Added/Changed
// filters compare against the previous tick; use SinceTick on the result to
// compare against an explicit tick instead.
func (w *World) Search(f filter.ComponentFilter) *search.Search {
	return search.New(w.store, f, w.lastSeenDefault())
}

// FlushEvents rotates the event buffers. The App calls this at the end of
// each tick.
func (w *World) FlushEvents() {
	w.events.Swap()
}

// GetRegisteredComponents returns the metadata of every registered component.
func (w *World) GetRegisteredComponents() []types.ComponentMetadata {
	return w.registry.GetComponents()
}

// RegisterObserver adds the observer to the world's dispatch table. The
// returned handle unregisters it.
func (w *World) RegisterObserver(obs Observer) ObserverHandle {
	return w.observers.register(obs)
}

// UnregisterObserver removes a previously registered observer. Unknown
// handles report false.
func (w *World) UnregisterObserver(handle ObserverHandle) bool {
	return w.observers.unregister(handle)
}

// lastSeenDefault is the tick Added/Changed filters compare against when no
// explicit tick is given: one before the current tick, saturating at zero.
func (w *World) lastSeenDefault() types.Tick {
	t := w.CurrentTick()
	if t == 0 {
		return 0
	}
	return t - 1
}

// applyStateTransitions applies every pending State transition. The App calls
// this at the start of each tick, before any stage runs.
func (w *World) applyStateTransitions() {
	now := w.CurrentTick()
	for _, r := range w.resources {
		if st, ok := r.(stateTransitioner); ok {
			st.applyTransition(now)
		}
	}
}
