package veldt

// RunCondition gates whether a system executes in a given tick. The scheduler
// evaluates it immediately before the system would run; a false result skips
// the system entirely for that tick, with no side effects.
type RunCondition func(w *World) bool

// InState is true while the State[S] resource holds target. A missing state
// resource never matches.
func InState[S comparable](target S) RunCondition {
	return func(w *World) bool {
		st, ok := GetState[S](w)
		return ok && st.Current() == target
	}
}

// OnEnterState is true only during the single tick in which the State[S]
// resource transitioned into target. It is edge-triggered: systems gated on
// it run once per transition, not continuously while the state holds.
func OnEnterState[S comparable](target S) RunCondition {
	return func(w *World) bool {
		st, ok := GetState[S](w)
		return ok && st.ChangedThisTick(w.CurrentTick()) && st.Current() == target
	}
}

// OnExitState is true only during the single tick in which the State[S]
// resource transitioned out of target.
func OnExitState[S comparable](target S) RunCondition {
	return func(w *World) bool {
		st, ok := GetState[S](w)
		return ok && st.ChangedThisTick(w.CurrentTick()) && st.Previous() == target
	}
}

// ResourceExists is true while a resource of type T is present.
func ResourceExists[T any]() RunCondition {
	return func(w *World) bool {
		return HasResource[T](w)
	}
}

// ResourceMatches is true while a resource of type T is present and pred
// accepts it. The predicate must not mutate the resource.
func ResourceMatches[T any](pred func(*T) bool) RunCondition {
	return func(w *World) bool {
		r, ok := GetResource[T](w)
		return ok && pred(r)
	}
}

// AndConditions is true when every given condition is true. Conditions are
// evaluated left to right and short-circuit.
func AndConditions(conds ...RunCondition) RunCondition {
	return func(w *World) bool {
		for _, cond := range conds {
			if !cond(w) {
				return false
			}
		}
		return true
	}
}

// OrConditions is true when at least one given condition is true. Conditions
// are evaluated left to right and short-circuit.
func OrConditions(conds ...RunCondition) RunCondition {
	return func(w *World) bool {
		for _, cond := range conds {
			if cond(w) {
				return true
			}
		}
		return false
	}
}

// NotCondition negates a condition.
func NotCondition(cond RunCondition) RunCondition {
	return func(w *World) bool {
		return !cond(w)
	}
}
