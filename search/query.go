package search

import (
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/storage"
	"github.com/veldtgames/veldt/types"
)

// The typed queries wrap a Search with the component types baked in, yielding
// pointers alongside each entity. Pointers stay valid until the next
// structural change; writes through them bypass change detection, re-insert
// the value to stamp it.

// Query1 yields entities carrying A.
type Query1[A types.Component] struct {
	search *Search
}

// NewQuery1 matches entities carrying A and satisfying the extra filters.
func NewQuery1[A types.Component](store *storage.Store, lastSeen types.Tick, extra ...filter.ComponentFilter) *Query1[A] {
	var a A
	return &Query1[A]{search: New(store, combine(filter.With(a), extra), lastSeen)}
}

// SinceTick returns a copy comparing Added/Changed stamps against t.
func (q *Query1[A]) SinceTick(t types.Tick) *Query1[A] {
	return &Query1[A]{search: q.search.SinceTick(t)}
}

// Each calls fn per matching entity. Returning false stops early.
func (q *Query1[A]) Each(fn func(types.Entity, *A) bool) {
	store := q.search.store
	idA, ok := componentID[A](store)
	if !ok {
		return
	}
	q.search.Each(func(e types.Entity) bool {
		pa, ok := store.Pointer(e, idA)
		if !ok {
			return true
		}
		return fn(e, pa.(*A))
	})
}

// First returns the first match in iteration order.
func (q *Query1[A]) First() (types.Entity, *A, bool) {
	entity, pa := types.Nil, (*A)(nil)
	q.Each(func(e types.Entity, a *A) bool {
		entity, pa = e, a
		return false
	})
	return entity, pa, pa != nil
}

// Count returns the number of matching entities.
func (q *Query1[A]) Count() int {
	return q.search.Count()
}

// Query2 yields entities carrying both A and B.
type Query2[A, B types.Component] struct {
	search *Search
}

// NewQuery2 matches entities carrying A and B and satisfying the extra
// filters.
func NewQuery2[A, B types.Component](store *storage.Store, lastSeen types.Tick, extra ...filter.ComponentFilter) *Query2[A, B] {
	var a A
	var b B
	return &Query2[A, B]{search: New(store, combine(filter.With(a, b), extra), lastSeen)}
}

// SinceTick returns a copy comparing Added/Changed stamps against t.
func (q *Query2[A, B]) SinceTick(t types.Tick) *Query2[A, B] {
	return &Query2[A, B]{search: q.search.SinceTick(t)}
}

// Each calls fn per matching entity. Returning false stops early.
func (q *Query2[A, B]) Each(fn func(types.Entity, *A, *B) bool) {
	store := q.search.store
	idA, okA := componentID[A](store)
	idB, okB := componentID[B](store)
	if !okA || !okB {
		return
	}
	q.search.Each(func(e types.Entity) bool {
		pa, ok := store.Pointer(e, idA)
		if !ok {
			return true
		}
		pb, ok := store.Pointer(e, idB)
		if !ok {
			return true
		}
		return fn(e, pa.(*A), pb.(*B))
	})
}

// First returns the first match in iteration order.
func (q *Query2[A, B]) First() (types.Entity, *A, *B, bool) {
	entity, pa, pb := types.Nil, (*A)(nil), (*B)(nil)
	q.Each(func(e types.Entity, a *A, b *B) bool {
		entity, pa, pb = e, a, b
		return false
	})
	return entity, pa, pb, pa != nil
}

// Count returns the number of matching entities.
func (q *Query2[A, B]) Count() int {
	return q.search.Count()
}

// Query3 yields entities carrying A, B, and C.
type Query3[A, B, C types.Component] struct {
	search *Search
}

// NewQuery3 matches entities carrying A, B, and C and satisfying the extra
// filters.
func NewQuery3[A, B, C types.Component](store *storage.Store, lastSeen types.Tick, extra ...filter.ComponentFilter) *Query3[A, B, C] {
	var a A
	var b B
	var c C
	return &Query3[A, B, C]{search: New(store, combine(filter.With(a, b, c), extra), lastSeen)}
}

// SinceTick returns a copy comparing Added/Changed stamps against t.
func (q *Query3[A, B, C]) SinceTick(t types.Tick) *Query3[A, B, C] {
	return &Query3[A, B, C]{search: q.search.SinceTick(t)}
}

// Each calls fn per matching entity. Returning false stops early.
func (q *Query3[A, B, C]) Each(fn func(types.Entity, *A, *B, *C) bool) {
	store := q.search.store
	idA, okA := componentID[A](store)
	idB, okB := componentID[B](store)
	idC, okC := componentID[C](store)
	if !okA || !okB || !okC {
		return
	}
	q.search.Each(func(e types.Entity) bool {
		pa, ok := store.Pointer(e, idA)
		if !ok {
			return true
		}
		pb, ok := store.Pointer(e, idB)
		if !ok {
			return true
		}
		pc, ok := store.Pointer(e, idC)
		if !ok {
			return true
		}
		return fn(e, pa.(*A), pb.(*B), pc.(*C))
	})
}

// First returns the first match in iteration order.
func (q *Query3[A, B, C]) First() (types.Entity, *A, *B, *C, bool) {
	entity, pa, pb, pc := types.Nil, (*A)(nil), (*B)(nil), (*C)(nil)
	q.Each(func(e types.Entity, a *A, b *B, c *C) bool {
		entity, pa, pb, pc = e, a, b, c
		return false
	})
	return entity, pa, pb, pc, pa != nil
}

// Count returns the number of matching entities.
func (q *Query3[A, B, C]) Count() int {
	return q.search.Count()
}

// Query4 yields entities carrying A, B, C, and D.
type Query4[A, B, C, D types.Component] struct {
	search *Search
}

// NewQuery4 matches entities carrying A, B, C, and D and satisfying the extra
// filters.
func NewQuery4[A, B, C, D types.Component](store *storage.Store, lastSeen types.Tick, extra ...filter.ComponentFilter) *Query4[A, B, C, D] {
	var a A
	var b B
	var c C
	var d D
	return &Query4[A, B, C, D]{search: New(store, combine(filter.With(a, b, c, d), extra), lastSeen)}
}

// SinceTick returns a copy comparing Added/Changed stamps against t.
func (q *Query4[A, B, C, D]) SinceTick(t types.Tick) *Query4[A, B, C, D] {
	return &Query4[A, B, C, D]{search: q.search.SinceTick(t)}
}

// Each calls fn per matching entity. Returning false stops early.
func (q *Query4[A, B, C, D]) Each(fn func(types.Entity, *A, *B, *C, *D) bool) {
	store := q.search.store
	idA, okA := componentID[A](store)
	idB, okB := componentID[B](store)
	idC, okC := componentID[C](store)
	idD, okD := componentID[D](store)
	if !okA || !okB || !okC || !okD {
		return
	}
	q.search.Each(func(e types.Entity) bool {
		pa, ok := store.Pointer(e, idA)
		if !ok {
			return true
		}
		pb, ok := store.Pointer(e, idB)
		if !ok {
			return true
		}
		pc, ok := store.Pointer(e, idC)
		if !ok {
			return true
		}
		pd, ok := store.Pointer(e, idD)
		if !ok {
			return true
		}
		return fn(e, pa.(*A), pb.(*B), pc.(*C), pd.(*D))
	})
}

// First returns the first match in iteration order.
func (q *Query4[A, B, C, D]) First() (types.Entity, *A, *B, *C, *D, bool) {
	entity, pa, pb, pc, pd := types.Nil, (*A)(nil), (*B)(nil), (*C)(nil), (*D)(nil)
	q.Each(func(e types.Entity, a *A, b *B, c *C, d *D) bool {
		entity, pa, pb, pc, pd = e, a, b, c, d
		return false
	})
	return entity, pa, pb, pc, pd, pa != nil
}

// Count returns the number of matching entities.
func (q *Query4[A, B, C, D]) Count() int {
	return q.search.Count()
}

func componentID[T types.Component](store *storage.Store) (types.ComponentID, bool) {
	var zero T
	return store.ComponentIDByName(zero.Name())
}

func combine(required filter.ComponentFilter, extra []filter.ComponentFilter) filter.ComponentFilter {
	if len(extra) == 0 {
		return required
	}
	return filter.And(append([]filter.ComponentFilter{required}, extra...)...)
}
