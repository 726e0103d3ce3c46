package veldt

import (
	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/component"
	"github.com/veldtgames/veldt/storage"
	"github.com/veldtgames/veldt/types"
)

// The storage and registry sentinels are re-exported so callers can match
// them with eris.Is without importing the internal packages.
var (
	ErrEntityDoesNotExist      = storage.ErrEntityDoesNotExist
	ErrComponentNotOnEntity    = storage.ErrComponentNotOnEntity
	ErrComponentNotRegistered  = component.ErrComponentNotRegistered
	ErrComponentSchemaMismatch = types.ErrComponentSchemaMismatch

	// ErrScheduleCycle is returned at schedule build time when set ordering
	// constraints contradict each other.
	ErrScheduleCycle = eris.New("schedule set constraints form a cycle")

	// ErrSystemAlreadyRegistered is returned when a system name is added to a
	// schedule twice.
	ErrSystemAlreadyRegistered = eris.New("system is already registered")

	// ErrStateNotRegistered is returned when a state transition targets a
	// State type that was never registered.
	ErrStateNotRegistered = eris.New("state is not registered")

	// ErrSelfParent is returned when an entity is made its own parent.
	ErrSelfParent = eris.New("entity cannot be its own parent")
)
