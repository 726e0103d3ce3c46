package veldt

import (
	"github.com/google/uuid"

	"github.com/veldtgames/veldt/types"
)

// Trigger names the component lifecycle event an observer reacts to.
type Trigger string

const (
	TriggerOnAdd    Trigger = "on_add"    // component inserted for the first time
	TriggerOnRemove Trigger = "on_remove" // component about to be removed, value still readable
	TriggerOnChange Trigger = "on_change" // component value overwritten through the mutation API
)

// Observer is a reactive callback fired synchronously during the World
// mutation that triggers it. The callback receives the World and may mutate
// it, including triggering further observers; the engine does not bound
// cascade depth, so avoiding unbounded recursion is the caller's job.
type Observer interface {
	// ComponentName is the Name() of the component type this observer watches.
	ComponentName() string
	// Trigger is the lifecycle event this observer fires on.
	Trigger() Trigger
	// Invoke is called with the component value relevant to the trigger: the
	// new value for OnAdd and OnChange, the outgoing value for OnRemove.
	Invoke(w *World, e types.Entity, value any)
}

// ObserverHandle identifies a registration so it can be undone.
type ObserverHandle uuid.UUID

func (h ObserverHandle) String() string {
	return uuid.UUID(h).String()
}

// OnAdd builds an observer fired when T is first inserted on an entity.
func OnAdd[T types.Component](fn func(w *World, e types.Entity, value T)) Observer {
	var zero T
	return &typedObserver[T]{component: zero.Name(), trigger: TriggerOnAdd, fn: fn}
}

// OnRemove builds an observer fired while T is being removed from an entity,
// with the outgoing value. Despawning an entity fires it for every component.
func OnRemove[T types.Component](fn func(w *World, e types.Entity, value T)) Observer {
	var zero T
	return &typedObserver[T]{component: zero.Name(), trigger: TriggerOnRemove, fn: fn}
}

// OnChange builds an observer fired when an existing T is overwritten through
// Insert or Update. In-place writes through a pointer do not fire it.
func OnChange[T types.Component](fn func(w *World, e types.Entity, value T)) Observer {
	var zero T
	return &typedObserver[T]{component: zero.Name(), trigger: TriggerOnChange, fn: fn}
}

type typedObserver[T types.Component] struct {
	component string
	trigger   Trigger
	fn        func(w *World, e types.Entity, value T)
}

func (o *typedObserver[T]) ComponentName() string {
	return o.component
}

func (o *typedObserver[T]) Trigger() Trigger {
	return o.trigger
}

func (o *typedObserver[T]) Invoke(w *World, e types.Entity, value any) {
	v, ok := value.(T)
	if !ok {
		// A mismatched value means two component types share a Name; the
		// registry rejects that, so this is unreachable in practice.
		w.logger.Error().
			Str("component", o.component).
			Str("trigger", string(o.trigger)).
			Msgf("observer received value of unexpected type %T", value)
		return
	}
	o.fn(w, e, v)
}

type observerKey struct {
	trigger   Trigger
	component string
}

type registeredObserver struct {
	handle   ObserverHandle
	observer Observer
}

// observerRegistry stores observers in two indexes: by (trigger, component)
// for dispatch and by component alone for existence checks. Observers on the
// same key run in registration order.
type observerRegistry struct {
	byTrigger   map[observerKey][]registeredObserver
	byComponent map[string][]ObserverHandle
	byHandle    map[ObserverHandle]observerKey
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{
		byTrigger:   map[observerKey][]registeredObserver{},
		byComponent: map[string][]ObserverHandle{},
		byHandle:    map[ObserverHandle]observerKey{},
	}
}

func (r *observerRegistry) register(obs Observer) ObserverHandle {
	handle := ObserverHandle(uuid.New())
	key := observerKey{trigger: obs.Trigger(), component: obs.ComponentName()}
	r.byTrigger[key] = append(r.byTrigger[key], registeredObserver{handle: handle, observer: obs})
	r.byComponent[key.component] = append(r.byComponent[key.component], handle)
	r.byHandle[handle] = key
	return handle
}

func (r *observerRegistry) unregister(handle ObserverHandle) bool {
	key, ok := r.byHandle[handle]
	if !ok {
		return false
	}
	delete(r.byHandle, handle)

	regs := r.byTrigger[key]
	for i, reg := range regs {
		if reg.handle == handle {
			r.byTrigger[key] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	handles := r.byComponent[key.component]
	for i, h := range handles {
		if h == handle {
			r.byComponent[key.component] = append(handles[:i:i], handles[i+1:]...)
			break
		}
	}
	return true
}

// watches reports whether any observer, on any trigger, watches the
// component. Despawn uses it to skip value snapshots nobody wants.
func (r *observerRegistry) watches(component string) bool {
	return len(r.byComponent[component]) > 0
}

// dispatch invokes every observer registered for (trigger, component) in
// registration order. Iteration runs over a snapshot, so callbacks may
// register or unregister observers without corrupting the walk; observers
// added during dispatch first fire on the next mutation.
func (r *observerRegistry) dispatch(w *World, trigger Trigger, component string, e types.Entity, value any) {
	regs := r.byTrigger[observerKey{trigger: trigger, component: component}]
	if len(regs) == 0 {
		return
	}
	snapshot := make([]registeredObserver, len(regs))
	copy(snapshot, regs)
	for _, reg := range snapshot {
		if _, live := r.byHandle[reg.handle]; !live {
			continue
		}
		w.logger.Debug().
			Str("trigger", string(trigger)).
			Str("component", component).
			Str("observer", reg.handle.String()).
			Msg("Dispatching observer")
		reg.observer.Invoke(w, e, value)
	}
}
