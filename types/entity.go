package types

import (
	"fmt"
	"math"
)

// EntityID indexes an entity slot in the world. Slot indices are recycled
// after a despawn, so an EntityID alone never identifies an entity; use the
// full Entity handle.
type EntityID uint32

// Generation counts how many times an entity slot has been recycled. A handle
// whose generation no longer matches its slot is permanently dead.
type Generation uint32

// NilID is the reserved "no entity" slot index. It never resolves to a live
// slot.
const NilID = EntityID(math.MaxUint32)

// Entity is a generational handle to an entity slot. Two handles refer to the
// same entity only when both ID and Generation match. The zero value is a
// (dead) handle to slot 0; use Nil for "no entity".
type Entity struct {
	ID         EntityID
	Generation Generation
}

// Nil is the placeholder handle meaning "no entity".
var Nil = Entity{ID: NilID}

// IsNil reports whether e is the "no entity" placeholder.
func (e Entity) IsNil() bool {
	return e.ID == NilID
}

func (e Entity) String() string {
	if e.IsNil() {
		return "Entity(nil)"
	}
	return fmt.Sprintf("Entity(%d v%d)", e.ID, e.Generation)
}
