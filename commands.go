package veldt

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/types"
)

// Commands queues structural mutations for later application, so systems can
// spawn, despawn, and reshape entities without invalidating iteration state
// they are in the middle of. Operations run in queue order when Apply is
// called; the scheduler applies each system's commands as soon as the system
// returns.
type Commands struct {
	queue []func(w *World) error
}

// NewCommands returns an empty command queue. Systems normally use the queue
// provided by their WorldContext; standalone queues are for headless worlds.
func NewCommands() *Commands {
	return &Commands{}
}

// Spawn queues creation of an entity carrying the given components. The
// component types must be registered before Apply runs; the typed Insert and
// RegisterComponent paths both do that. The returned EntityCommands queues
// further operations against the entity-to-be.
func (c *Commands) Spawn(components ...types.Component) *EntityCommands {
	ec := &EntityCommands{commands: c, entity: new(types.Entity)}
	*ec.entity = types.Nil
	c.queue = append(c.queue, func(w *World) error {
		e, err := w.SpawnWith(components...)
		if err != nil {
			return err
		}
		*ec.entity = e
		return nil
	})
	return ec
}

// Despawn queues removal of the entity. Entities already dead at apply time
// are skipped silently.
func (c *Commands) Despawn(e types.Entity) {
	c.queue = append(c.queue, func(w *World) error {
		w.Despawn(e)
		return nil
	})
}

// DespawnRecursive queues removal of the entity and all its descendants.
func (c *Commands) DespawnRecursive(e types.Entity) {
	c.queue = append(c.queue, func(w *World) error {
		DespawnRecursive(w, e)
		return nil
	})
}

// Insert queues setting a component on an existing entity. The component type
// must be registered before Apply runs; QueueInsert registers on first use
// and is preferred when the type is statically known.
func (c *Commands) Insert(e types.Entity, comp types.Component) {
	c.queue = append(c.queue, func(w *World) error {
		return w.insertComponentValue(e, comp)
	})
}

// Remove queues removal of the named component from the entity. Entities that
// lost the component (or died) before apply time are skipped silently.
func (c *Commands) Remove(e types.Entity, componentName string) {
	c.queue = append(c.queue, func(w *World) error {
		return w.removeComponentByName(e, componentName)
	})
}

// Queue appends an arbitrary deferred operation.
func (c *Commands) Queue(fn func(w *World) error) {
	c.queue = append(c.queue, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.queue)
}

// Apply runs every queued operation against the world in queue order and
// empties the queue. Operations hitting entities that died or lost the
// touched component in the meantime are normal churn and are skipped; any
// other failures are joined into the returned error after all operations have
// run.
func (c *Commands) Apply(w *World) error {
	var errs []error
	for _, op := range c.queue {
		err := op(w)
		if err == nil {
			continue
		}
		cause := eris.Cause(err)
		if eris.Is(cause, eris.Cause(ErrEntityDoesNotExist)) ||
			eris.Is(cause, eris.Cause(ErrComponentNotOnEntity)) {
			continue
		}
		errs = append(errs, err)
	}
	c.queue = c.queue[:0]
	return errors.Join(errs...)
}

// discard drops all queued operations without applying them.
func (c *Commands) discard() {
	c.queue = c.queue[:0]
}

// EntityCommands queues operations against an entity a Commands.Spawn call
// will create. The handle is unresolved until Apply runs.
type EntityCommands struct {
	commands *Commands
	entity   *types.Entity
}

// Insert queues setting a component on the spawned entity.
func (ec *EntityCommands) Insert(comp types.Component) *EntityCommands {
	ec.commands.queue = append(ec.commands.queue, func(w *World) error {
		return w.insertComponentValue(*ec.entity, comp)
	})
	return ec
}

// Remove queues removal of the named component from the spawned entity.
func (ec *EntityCommands) Remove(componentName string) *EntityCommands {
	ec.commands.queue = append(ec.commands.queue, func(w *World) error {
		return w.removeComponentByName(*ec.entity, componentName)
	})
	return ec
}

// Entity returns the spawned entity's handle, or types.Nil before Apply has
// run the spawn.
func (ec *EntityCommands) Entity() types.Entity {
	return *ec.entity
}

// QueueInsert queues a typed component insert, registering T on first use at
// apply time.
func QueueInsert[T types.Component](c *Commands, e types.Entity, value T) {
	c.queue = append(c.queue, func(w *World) error {
		return Insert(w, e, value)
	})
}

// QueueRemove queues a typed component removal.
func QueueRemove[T types.Component](c *Commands, e types.Entity) {
	c.queue = append(c.queue, func(w *World) error {
		Remove[T](w, e)
		return nil
	})
}
