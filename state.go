package veldt

import (
	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/types"
)

// stateTransitioner is implemented by every State resource regardless of its
// value type, so the world can apply pending transitions without knowing S.
type stateTransitioner interface {
	applyTransition(now types.Tick)
}

// State is a resource holding a current value of S plus an optional pending
// next value. Set stages a transition; the world applies it at the start of
// the next tick, before any stage runs, so every system in a tick sees one
// consistent state. OnEnterState and OnExitState conditions are edge-triggered
// off the single tick a transition was applied in.
type State[S comparable] struct {
	current  S
	previous S
	pending  *S

	// changedAt is only meaningful while changed is true; a freshly
	// registered state has never transitioned.
	changedAt types.Tick
	changed   bool
}

// NewState returns a state resource holding initial, with no transition
// staged and no transition history.
func NewState[S comparable](initial S) State[S] {
	return State[S]{current: initial, previous: initial}
}

// Current returns the active state value.
func (s *State[S]) Current() S {
	return s.current
}

// Previous returns the value before the last applied transition. Until the
// first transition it equals Current.
func (s *State[S]) Previous() S {
	return s.previous
}

// Set stages next as the pending state. The transition is applied at the
// start of the following tick; staging the current value again is a no-op,
// and a second Set before the transition applies overwrites the first.
func (s *State[S]) Set(next S) {
	s.pending = &next
}

// Pending returns the staged next value, if any.
func (s *State[S]) Pending() (S, bool) {
	if s.pending == nil {
		var zero S
		return zero, false
	}
	return *s.pending, true
}

// ChangedThisTick reports whether a transition was applied at the given tick.
func (s *State[S]) ChangedThisTick(now types.Tick) bool {
	return s.changed && s.changedAt == now
}

func (s *State[S]) applyTransition(now types.Tick) {
	if s.pending == nil {
		return
	}
	next := *s.pending
	s.pending = nil
	if next == s.current {
		return
	}
	s.previous = s.current
	s.current = next
	s.changedAt = now
	s.changed = true
}

// RegisterState inserts a State[S] resource holding initial. Registering
// again replaces the state and its history.
func RegisterState[S comparable](w *World, initial S) {
	InsertResource(w, NewState(initial))
}

// GetState returns the State[S] resource.
func GetState[S comparable](w *World) (*State[S], bool) {
	return GetResource[State[S]](w)
}

// SetState stages a transition on the State[S] resource. It fails with
// ErrStateNotRegistered when RegisterState[S] was never called.
func SetState[S comparable](w *World, next S) error {
	st, ok := GetState[S](w)
	if !ok {
		return eris.Wrapf(ErrStateNotRegistered, "no state registered for type %T", next)
	}
	st.Set(next)
	return nil
}
