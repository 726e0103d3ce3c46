package veldt

import (
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/search"
	"github.com/veldtgames/veldt/types"
)

// The NewQueryN constructors are the world-level entry points for typed
// iteration. Each binds N component types plus optional extra filters
// (Without, Added, Changed, Or, Not) and compares change-detection filters
// against the previous tick unless retargeted with SinceTick. Querying a
// component type no entity has ever carried simply matches nothing.

// NewQuery1 returns a query over entities carrying A.
func NewQuery1[A types.Component](w *World, extra ...filter.ComponentFilter) *search.Query1[A] {
	return search.NewQuery1[A](w.store, w.lastSeenDefault(), extra...)
}

// NewQuery2 returns a query over entities carrying A and B.
func NewQuery2[A, B types.Component](w *World, extra ...filter.ComponentFilter) *search.Query2[A, B] {
	return search.NewQuery2[A, B](w.store, w.lastSeenDefault(), extra...)
}

// NewQuery3 returns a query over entities carrying A, B, and C.
func NewQuery3[A, B, C types.Component](w *World, extra ...filter.ComponentFilter) *search.Query3[A, B, C] {
	return search.NewQuery3[A, B, C](w.store, w.lastSeenDefault(), extra...)
}

// NewQuery4 returns a query over entities carrying A, B, C, and D.
func NewQuery4[A, B, C, D types.Component](w *World, extra ...filter.ComponentFilter) *search.Query4[A, B, C, D] {
	return search.NewQuery4[A, B, C, D](w.store, w.lastSeenDefault(), extra...)
}
