package veldt

import (
	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/component"
	"github.com/veldtgames/veldt/storage"
	"github.com/veldtgames/veldt/types"
)

// nonFatalErrors are the expected runtime failures of entity churn: stale
// handles and absent components degrade to no-ops instead of crashing game
// logic. Everything else reaching panicOnFatalError is a programming error.
var nonFatalErrors = []error{
	ErrEntityDoesNotExist,
	ErrComponentNotOnEntity,
	ErrComponentNotRegistered,
	ErrStateNotRegistered,
}

// panicOnFatalError panics on errors that indicate engine misuse rather than
// normal entity churn, after logging the full eris trace.
func panicOnFatalError(w *World, err error) {
	if err != nil && isFatalError(err) {
		w.logger.Panic().Err(err).Msgf("fatal error: %v", eris.ToString(err, true))
		panic(err)
	}
}

func isFatalError(err error) bool {
	for _, e := range nonFatalErrors {
		if eris.Is(eris.Cause(err), eris.Cause(e)) {
			return false
		}
	}
	return true
}

// RegisterComponent registers T with the world's component registry,
// assigning it a stable ComponentID and teaching the storage layer how to
// build columns for it. Registering the same type twice is a no-op; a
// different type claiming an already-registered name fails with
// ErrComponentSchemaMismatch.
//
// Registration is also performed lazily by Insert, so calling this up front
// is only required for components that are first touched dynamically (by
// name) through Commands.
func RegisterComponent[T types.Component](w *World) error {
	compMetadata, err := component.NewComponentMetadata[T]()
	if err != nil {
		return err
	}
	if err := w.registry.Register(compMetadata); err != nil {
		return err
	}
	if err := w.store.RegisterColumn(compMetadata.ID(), compMetadata.Name(), storage.NewColumnMaker[T]()); err != nil {
		return err
	}
	w.logger.Debug().
		Str("component_name", compMetadata.Name()).
		Int("component_id", int(compMetadata.ID())).
		Msg("Component registered")
	return nil
}

// MustRegisterComponent is RegisterComponent that panics on failure.
func MustRegisterComponent[T types.Component](w *World) {
	if err := RegisterComponent[T](w); err != nil {
		panic(err)
	}
}

// ensureRegistered resolves T's metadata, registering the type on first use.
func ensureRegistered[T types.Component](w *World) (types.ComponentMetadata, error) {
	var zero T
	meta, err := w.registry.GetComponentByName(zero.Name())
	if err == nil {
		return meta, nil
	}
	if !eris.Is(eris.Cause(err), component.ErrComponentNotRegistered) {
		return nil, err
	}
	if err := RegisterComponent[T](w); err != nil {
		return nil, err
	}
	return w.registry.GetComponentByName(zero.Name())
}

// Insert sets component T on the entity. If the entity does not yet carry T
// its row migrates to the archetype extended with T, the component is stamped
// added at the current tick, and OnAdd observers fire with value. If T is
// already present the slot is overwritten, stamped changed, and OnChange
// observers fire. Stale handles fail with ErrEntityDoesNotExist, which
// callers may treat as a no-op.
func Insert[T types.Component](w *World, e types.Entity, value T) (err error) {
	defer func() { panicOnFatalError(w, err) }()

	meta, err := ensureRegistered[T](w)
	if err != nil {
		return err
	}
	added, err := w.store.Insert(e, meta.ID(), value, w.CurrentTick())
	if err != nil {
		return err
	}
	trigger := TriggerOnChange
	if added {
		trigger = TriggerOnAdd
	}
	w.observers.dispatch(w, trigger, meta.Name(), e, value)

	w.logger.Debug().
		Str("entity", e.String()).
		Str("component_name", meta.Name()).
		Int("component_id", int(meta.ID())).
		Bool("added", added).
		Msg("Entity updated")
	return nil
}

// Get returns a pointer to the entity's T, or false when the entity is dead
// or does not carry T. The pointer aliases the component's storage slot and
// stays valid only until the next structural change; writes through it are
// invisible to change detection, so re-insert the value to stamp it.
func Get[T types.Component](w *World, e types.Entity) (*T, bool) {
	var zero T
	id, ok := w.store.ComponentIDByName(zero.Name())
	if !ok {
		return nil, false
	}
	p, ok := w.store.Pointer(e, id)
	if !ok {
		return nil, false
	}
	return p.(*T), true
}

// Has reports whether the entity is alive and carries component T.
func Has[T types.Component](w *World, e types.Entity) bool {
	var zero T
	id, ok := w.store.ComponentIDByName(zero.Name())
	if !ok {
		return false
	}
	return w.store.HasComponent(e, id)
}

// Remove takes component T off the entity and returns the removed value,
// migrating the row to the archetype without T. OnRemove observers fire with
// the outgoing value before the migration. Dead entities and absent
// components report a zero value and false.
func Remove[T types.Component](w *World, e types.Entity) (T, bool) {
	var zero T
	meta, err := w.registry.GetComponentByName(zero.Name())
	if err != nil {
		return zero, false
	}
	old, ok := w.store.Value(e, meta.ID())
	if !ok {
		return zero, false
	}
	w.observers.dispatch(w, TriggerOnRemove, meta.Name(), e, old)
	// An observer may have despawned the entity or removed the component; the
	// removal then reports absence.
	removed, err := w.store.Remove(e, meta.ID())
	if err != nil {
		return zero, false
	}
	return removed.(T), true
}

// Update applies fn to the entity's current T and re-inserts the result,
// stamping the component changed and firing OnChange observers. This is the
// idiomatic way to mutate a component without losing change detection.
func Update[T types.Component](w *World, e types.Entity, fn func(*T) *T) (err error) {
	defer func() { panicOnFatalError(w, err) }()

	p, ok := Get[T](w, e)
	if !ok {
		var zero T
		if !w.IsAlive(e) {
			return eris.Wrapf(ErrEntityDoesNotExist, "cannot update component %q", zero.Name())
		}
		return eris.Wrapf(ErrComponentNotOnEntity, "cannot update component %q", zero.Name())
	}
	value := *p
	updated := fn(&value)
	return Insert(w, e, *updated)
}

// insertComponentValue inserts a component known only by its dynamic type.
// Unlike the generic Insert it cannot register the component on first use, so
// the type must have been registered already.
func (w *World) insertComponentValue(e types.Entity, comp types.Component) error {
	meta, err := w.registry.GetComponentByName(comp.Name())
	if err != nil {
		return err
	}
	added, err := w.store.Insert(e, meta.ID(), comp, w.CurrentTick())
	if err != nil {
		return err
	}
	trigger := TriggerOnChange
	if added {
		trigger = TriggerOnAdd
	}
	w.observers.dispatch(w, trigger, meta.Name(), e, comp)
	return nil
}

// removeComponentByName removes a component known only by name, with the same
// observer dispatch as the generic Remove.
func (w *World) removeComponentByName(e types.Entity, name string) error {
	meta, err := w.registry.GetComponentByName(name)
	if err != nil {
		return err
	}
	old, ok := w.store.Value(e, meta.ID())
	if !ok {
		if !w.IsAlive(e) {
			return eris.Wrapf(ErrEntityDoesNotExist, "cannot remove component %q", name)
		}
		return eris.Wrapf(ErrComponentNotOnEntity, "cannot remove component %q", name)
	}
	w.observers.dispatch(w, TriggerOnRemove, meta.Name(), e, old)
	_, err = w.store.Remove(e, meta.ID())
	return err
}
