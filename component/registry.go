package component

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/types"
)

var ErrComponentNotRegistered = eris.New("component not registered")

// Registry assigns stable ComponentIDs to component types. Each world owns
// its own registry, so tests get a clean ID space per world. IDs start at 1
// and are never reused.
type Registry struct {
	registeredComponents map[string]types.ComponentMetadata
	componentsByID       map[types.ComponentID]types.ComponentMetadata
	nextComponentID      types.ComponentID
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		registeredComponents: make(map[string]types.ComponentMetadata),
		componentsByID:       make(map[types.ComponentID]types.ComponentMetadata),
		nextComponentID:      1,
	}
}

// Register registers a component with the registry.
// There can only be one component with a given name, which is declared by the user by
// implementing the Name() method. Re-registering a name is allowed only when the new
// component's schema matches the one already registered; the incoming metadata then
// adopts the already-assigned ID. A name collision between two structurally different
// components is a hard error.
func (r *Registry) Register(compMetadata types.ComponentMetadata) error {
	existing, ok := r.registeredComponents[compMetadata.Name()]
	if ok {
		// If the name is taken, the shapes must match. This catches two distinct Go
		// types claiming the same component name.
		if err := compMetadata.ValidateAgainstSchema(existing.GetSchema()); err != nil {
			if eris.Is(eris.Cause(err), types.ErrComponentSchemaMismatch) {
				return eris.Wrap(err,
					fmt.Sprintf("component %q is already registered with a different schema", compMetadata.Name()),
				)
			}
			return eris.Wrap(err, "error when validating component schema against registered schema")
		}
		return compMetadata.SetID(existing.ID())
	}

	if err := compMetadata.SetID(r.nextComponentID); err != nil {
		return err
	}
	r.registeredComponents[compMetadata.Name()] = compMetadata
	r.componentsByID[compMetadata.ID()] = compMetadata
	r.nextComponentID++

	return nil
}

// GetComponents returns a list of all registered components.
// Note: The order of the components in the list is not deterministic.
func (r *Registry) GetComponents() []types.ComponentMetadata {
	registeredComponents := make([]types.ComponentMetadata, 0, len(r.registeredComponents))
	for _, comp := range r.registeredComponents {
		registeredComponents = append(registeredComponents, comp)
	}
	return registeredComponents
}

// GetComponentByName returns the component metadata for the given component name.
func (r *Registry) GetComponentByName(name string) (types.ComponentMetadata, error) {
	c, ok := r.registeredComponents[name]
	if !ok {
		return nil, eris.Wrap(ErrComponentNotRegistered, fmt.Sprintf("component %q is not registered", name))
	}
	return c, nil
}

// GetComponentByID returns the component metadata for the given component ID.
func (r *Registry) GetComponentByID(id types.ComponentID) (types.ComponentMetadata, error) {
	c, ok := r.componentsByID[id]
	if !ok {
		return nil, eris.Wrap(ErrComponentNotRegistered, fmt.Sprintf("component id %d is not registered", id))
	}
	return c, nil
}

// IsRegistered reports whether a component with the given name is registered.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.registeredComponents[name]
	return ok
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.registeredComponents)
}
