package types

import (
	"github.com/rotisserie/eris"
)

// ComponentID identifies a registered component type. IDs are assigned
// monotonically by the world's component registry and are never reused.
type ComponentID int

// ArchetypeID identifies an archetype table within a world. Archetypes are
// never destroyed, so an ArchetypeID stays valid for the life of the world.
type ArchetypeID int

var ErrComponentSchemaMismatch = eris.New("component schema does not match target schema")

// Component is the interface that the user needs to implement to create a new component type.
type Component interface {
	// Name returns the name of the component.
	Name() string
}

// ComponentMetadata wraps the user-defined Component struct and provides functionalities that are used
// internally in the engine.
type ComponentMetadata interface { //revive:disable-line:exported
	// SetID sets the ComponentID of this component. It must only be set once.
	SetID(ComponentID) error
	// ID returns the ComponentID of the component.
	ID() ComponentID
	// New returns the marshaled bytes of the default value for the component struct.
	New() ([]byte, error)
	Encode(any) ([]byte, error)
	Decode([]byte) (any, error)
	GetSchema() []byte
	// ValidateAgainstSchema errors with ErrComponentSchemaMismatch when the given schema
	// does not describe the same shape as this component.
	ValidateAgainstSchema(targetSchema []byte) error

	Component
}
