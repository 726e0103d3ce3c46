package veldt

import (
	"iter"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/types"
)

// Parent marks an entity as the child of another. It is an ordinary
// component; the hierarchy helpers keep it consistent with the parent's
// Children list. Mutating it directly bypasses that maintenance.
type Parent struct {
	Entity types.Entity `json:"entity"`
}

// Name returns the component name.
func (Parent) Name() string { return "veldt.parent" }

// Children lists an entity's children in attachment order, without
// duplicates. Entities without children do not carry this component.
type Children struct {
	Entities []types.Entity `json:"entities"`
}

// Name returns the component name.
func (Children) Name() string { return "veldt.children" }

// SetParent makes child a child of parent, detaching it from any previous
// parent first. Calling it again with the same arguments is a no-op; the
// child appears in the parent's Children exactly once. Attaching an entity to
// itself fails with ErrSelfParent. Cycles introduced through longer chains
// are not detected; callers must not construct them or the traversal helpers
// will not terminate.
func SetParent(w *World, child, parent types.Entity) (err error) {
	defer func() { panicOnFatalError(w, err) }()

	if child == parent {
		return eris.Wrapf(ErrSelfParent, "entity %s", child.String())
	}
	if !w.IsAlive(child) {
		return eris.Wrapf(ErrEntityDoesNotExist, "cannot set parent of entity %s", child.String())
	}
	if !w.IsAlive(parent) {
		return eris.Wrapf(ErrEntityDoesNotExist, "cannot use entity %s as parent", parent.String())
	}
	if current, ok := GetParent(w, child); ok && current == parent {
		return nil
	}
	detachFromParent(w, child)
	if err := Insert(w, child, Parent{Entity: parent}); err != nil {
		return err
	}
	return attachChild(w, parent, child)
}

// ClearParent detaches child from its parent, removing its Parent component
// and its entry in the parent's Children. Detaching an entity with no parent
// is a no-op.
func ClearParent(w *World, child types.Entity) error {
	if !w.IsAlive(child) {
		return eris.Wrapf(ErrEntityDoesNotExist, "cannot clear parent of entity %s", child.String())
	}
	detachFromParent(w, child)
	return nil
}

// GetParent returns the entity's parent, or false when it has none.
func GetParent(w *World, e types.Entity) (types.Entity, bool) {
	p, ok := Get[Parent](w, e)
	if !ok {
		return types.Nil, false
	}
	return p.Entity, true
}

// GetChildren returns a copy of the entity's children in attachment order.
// Entities without children yield nil.
func GetChildren(w *World, e types.Entity) []types.Entity {
	c, ok := Get[Children](w, e)
	if !ok {
		return nil
	}
	return slices.Clone(c.Entities)
}

// Ancestors walks the Parent links upward from e, nearest first. Dead
// entities yield an empty sequence, and the walk stops at the first dead or
// missing ancestor.
func Ancestors(w *World, e types.Entity) iter.Seq[types.Entity] {
	return func(yield func(types.Entity) bool) {
		cur := e
		for w.IsAlive(cur) {
			parent, ok := GetParent(w, cur)
			if !ok || !w.IsAlive(parent) {
				return
			}
			if !yield(parent) {
				return
			}
			cur = parent
		}
	}
}

// Descendants walks the Children tree below e in depth-first pre-order,
// excluding e itself. Dead entities yield an empty sequence.
func Descendants(w *World, e types.Entity) iter.Seq[types.Entity] {
	return func(yield func(types.Entity) bool) {
		if !w.IsAlive(e) {
			return
		}
		var walk func(types.Entity) bool
		walk = func(cur types.Entity) bool {
			for _, child := range GetChildren(w, cur) {
				if !w.IsAlive(child) {
					continue
				}
				if !yield(child) {
					return false
				}
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(e)
	}
}

// Root walks the Parent links to the topmost ancestor, or returns e itself
// when it has no parent.
func Root(w *World, e types.Entity) types.Entity {
	cur := e
	for {
		parent, ok := GetParent(w, cur)
		if !ok || !w.IsAlive(parent) {
			return cur
		}
		cur = parent
	}
}

// DespawnRecursive despawns e and every descendant, children before parents
// so no Children component ever references an already-freed handle from a
// live entity. It returns the number of entities despawned; a dead root
// despawns nothing.
func DespawnRecursive(w *World, e types.Entity) int {
	if !w.IsAlive(e) {
		return 0
	}
	detachFromParent(w, e)

	collected := []types.Entity{e}
	for d := range Descendants(w, e) {
		collected = append(collected, d)
	}
	count := 0
	for i := len(collected) - 1; i >= 0; i-- {
		if w.Despawn(collected[i]) {
			count++
		}
	}
	return count
}

// detachFromParent removes child from its parent's Children and strips the
// Parent component. Safe to call on entities without a parent.
func detachFromParent(w *World, child types.Entity) {
	parent, ok := GetParent(w, child)
	if ok && w.IsAlive(parent) {
		removeChildEntry(w, parent, child)
	}
	Remove[Parent](w, child)
}

// removeChildEntry filters child out of parent's Children, dropping the
// component entirely when the list empties.
func removeChildEntry(w *World, parent, child types.Entity) {
	c, ok := Get[Children](w, parent)
	if !ok {
		return
	}
	idx := slices.Index(c.Entities, child)
	if idx < 0 {
		return
	}
	remaining := slices.Delete(slices.Clone(c.Entities), idx, idx+1)
	if len(remaining) == 0 {
		Remove[Children](w, parent)
		return
	}
	// Re-insert so the change is stamped for change detection.
	_ = Insert(w, parent, Children{Entities: remaining})
}

// attachChild appends child to parent's Children, creating the component on
// first attachment and suppressing duplicates.
func attachChild(w *World, parent, child types.Entity) error {
	c, ok := Get[Children](w, parent)
	if !ok {
		return Insert(w, parent, Children{Entities: []types.Entity{child}})
	}
	if slices.Contains(c.Entities, child) {
		return nil
	}
	entities := append(slices.Clone(c.Entities), child)
	return Insert(w, parent, Children{Entities: entities})
}
