package veldt

import (
	"reflect"

	"github.com/veldtgames/veldt/types"
)

// Resources are singleton values keyed by their Go type, stored apart from
// per-entity components. External subsystems (audio state, save managers,
// window state) attach their state to the World through these accessors.

// InsertResource stores value as the singleton of type T, silently replacing
// any previous instance. Resources embedding Tracked are stamped with the
// current tick.
func InsertResource[T any](w *World, value T) {
	stored := &value
	if tr, ok := any(stored).(resourceTracker); ok {
		tr.stampInserted(w.CurrentTick())
	}
	w.resources[reflect.TypeFor[T]()] = stored
	w.logger.Debug().
		Str("resource", reflect.TypeFor[T]().String()).
		Msg("Resource inserted")
}

// GetResource returns a pointer to the singleton of type T, or false when no
// instance exists. Mutations through the pointer are not change-tracked; see
// Tracked.
func GetResource[T any](w *World) (*T, bool) {
	r, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

// HasResource reports whether a singleton of type T exists.
func HasResource[T any](w *World) bool {
	_, ok := w.resources[reflect.TypeFor[T]()]
	return ok
}

// RemoveResource deletes the singleton of type T and returns it. The second
// return is false when no instance existed.
func RemoveResource[T any](w *World) (T, bool) {
	key := reflect.TypeFor[T]()
	r, ok := w.resources[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(w.resources, key)
	w.logger.Debug().
		Str("resource", key.String()).
		Msg("Resource removed")
	return *r.(*T), true
}

// resourceTracker is implemented by resources embedding Tracked so
// InsertResource can stamp them.
type resourceTracker interface {
	stampInserted(now types.Tick)
}

// Tracked gives a resource the same added/changed tick stamps components
// carry. Embed it and call Mark after mutating:
//
//	type Score struct {
//		veldt.Tracked
//		Points int
//	}
//
//	score, _ := veldt.GetResource[Score](w)
//	score.Points += 10
//	score.Mark(w.CurrentTick())
//
// InsertResource stamps the added tick automatically; marking is the caller's
// job because the engine cannot see writes through the returned pointer.
type Tracked struct {
	ticks types.ComponentTicks
}

// Mark records that the resource was mutated at the given tick.
func (t *Tracked) Mark(now types.Tick) {
	t.ticks.Mark(now)
}

// IsAddedSince reports whether the resource was inserted after lastSeen.
func (t *Tracked) IsAddedSince(lastSeen types.Tick) bool {
	return t.ticks.IsAddedSince(lastSeen)
}

// IsChangedSince reports whether the resource was marked after lastSeen.
func (t *Tracked) IsChangedSince(lastSeen types.Tick) bool {
	return t.ticks.IsChangedSince(lastSeen)
}

func (t *Tracked) stampInserted(now types.Tick) {
	t.ticks = types.NewComponentTicks(now)
}
