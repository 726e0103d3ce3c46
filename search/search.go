// Package search finds the entities whose component sets match a filter. A
// search caches which archetypes matched and, because archetypes are never
// destroyed, later evaluations only inspect archetypes created since the last
// run.
package search

import (
	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/storage"
	"github.com/veldtgames/veldt/types"
)

// CallbackFn is invoked once per matching entity. Returning false stops the
// iteration early.
type CallbackFn func(types.Entity) bool

type cache struct {
	archetypes []types.ArchetypeID
	seen       int
}

// Search iterates entities matching a component filter. Iteration within one
// call is archetype by archetype, row order within each archetype; no entity
// is yielded twice and every yielded entity satisfies the filter at the moment
// it is yielded. A Search is restartable, never resumable.
type Search struct {
	store        *storage.Store
	filter       filter.ComponentFilter
	archMatches  *cache
	lastSeen     types.Tick
	rowSensitive bool
}

// New creates a search over the store. Added and Changed filters inside f
// compare stamps against lastSeen; a nil filter matches everything.
func New(store *storage.Store, f filter.ComponentFilter, lastSeen types.Tick) *Search {
	if f == nil {
		f = filter.All()
	}
	return &Search{
		store:        store,
		filter:       f,
		archMatches:  &cache{},
		lastSeen:     lastSeen,
		rowSensitive: filter.IsRowSensitive(f),
	}
}

// SinceTick returns a copy of the search whose Added/Changed filters compare
// against the given tick instead of the world's previous tick.
func (s *Search) SinceTick(t types.Tick) *Search {
	dup := *s
	dup.lastSeen = t
	return &dup
}

// Each calls the callback for every matching entity. The callback may mutate
// the world: entities are yielded from a snapshot and re-resolved just before
// each call, so rows despawned or migrated mid-iteration are skipped.
func (s *Search) Each(cb CallbackFn) {
	for _, archID := range s.evaluateSearch() {
		arch := s.store.Archetype(archID)
		if arch.Len() == 0 {
			continue
		}
		for _, e := range arch.Entities() {
			if !s.matchesNow(e, archID) {
				continue
			}
			if !cb(e) {
				return
			}
		}
	}
}

// Count returns the number of matching entities.
func (s *Search) Count() int {
	count := 0
	for _, archID := range s.evaluateSearch() {
		arch := s.store.Archetype(archID)
		if !s.rowSensitive {
			count += arch.Len()
			continue
		}
		for row := 0; row < arch.Len(); row++ {
			if s.filter.MatchesRow(rowView{arch: arch, row: row, lastSeen: s.lastSeen}) {
				count++
			}
		}
	}
	return count
}

// First returns the first matching entity in iteration order.
func (s *Search) First() (types.Entity, bool) {
	found, ok := types.Nil, false
	s.Each(func(e types.Entity) bool {
		found, ok = e, true
		return false
	})
	return found, ok
}

// MustFirst returns the first matching entity and panics when there is none.
func (s *Search) MustFirst() types.Entity {
	e, ok := s.First()
	if !ok {
		panic("no entity matches the search criteria")
	}
	return e
}

// matchesNow re-resolves a snapshot handle against the live store. Rows the
// callback despawned or migrated out of this table are skipped, which keeps a
// pass duplicate-free when callbacks mutate the world. Structural filters were
// already satisfied by the archetype pass, so only row-sensitive filters need
// the per-row check.
func (s *Search) matchesNow(e types.Entity, archID types.ArchetypeID) bool {
	cur, row, ok := s.store.Location(e)
	if !ok || cur != archID {
		return false
	}
	if !s.rowSensitive {
		return true
	}
	return s.filter.MatchesRow(rowView{
		arch:     s.store.Archetype(archID),
		row:      row,
		lastSeen: s.lastSeen,
	})
}

func (s *Search) evaluateSearch() []types.ArchetypeID {
	cache := s.archMatches
	for it := s.store.SearchFrom(s.filter, cache.seen); it.HasNext(); {
		cache.archetypes = append(cache.archetypes, it.Next())
	}
	cache.seen = s.store.ArchetypeCount()
	return cache.archetypes
}

// rowView adapts one archetype row to the filter package's row interface.
type rowView struct {
	arch     *storage.Archetype
	row      int
	lastSeen types.Tick
}

var _ filter.RowView = rowView{}

func (v rowView) HasComponent(name string) bool {
	return v.arch.HasComponent(name)
}

func (v rowView) ComponentCount() int {
	return v.arch.ComponentCount()
}

func (v rowView) ComponentTicks(name string) (types.ComponentTicks, bool) {
	return v.arch.TicksFor(name, v.row)
}

func (v rowView) LastSeen() types.Tick {
	return v.lastSeen
}
