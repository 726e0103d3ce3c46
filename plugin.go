package veldt

import (
	"github.com/goccy/go-json"

	"github.com/veldtgames/veldt/filter"
	"github.com/veldtgames/veldt/types"
)

// Plugin is how external subsystems attach to an App. Build registers the
// plugin's components, resources, systems, and observers; Cleanup reverses
// whatever Build acquired. The App runs Cleanups in reverse registration
// order at shutdown.
type Plugin interface {
	Build(app *App) error
	Cleanup(app *App) error
}

// hierarchyPlugin registers the Parent and Children components up front, so
// command queues can reference them by name, and watches Parent removals to
// keep the parent's Children list free of dead entries when a child is
// despawned outside the hierarchy helpers.
type hierarchyPlugin struct {
	handle ObserverHandle
}

var _ Plugin = (*hierarchyPlugin)(nil)

func newHierarchyPlugin() *hierarchyPlugin {
	return &hierarchyPlugin{}
}

func (p *hierarchyPlugin) Build(app *App) error {
	w := app.World()
	if err := RegisterComponent[Parent](w); err != nil {
		return err
	}
	if err := RegisterComponent[Children](w); err != nil {
		return err
	}
	p.handle = w.RegisterObserver(OnRemove(func(w *World, child types.Entity, value Parent) {
		if w.IsAlive(value.Entity) {
			removeChildEntry(w, value.Entity, child)
		}
	}))
	return nil
}

func (p *hierarchyPlugin) Cleanup(app *App) error {
	app.World().UnregisterObserver(p.handle)
	return nil
}

// DebugStateElement is one entity's components rendered as raw JSON.
type DebugStateElement struct {
	Entity     types.Entity               `json:"entity"`
	Components map[string]json.RawMessage `json:"components"`
}

// DebugStateResponse is a full world snapshot: every live entity with every
// component it carries.
type DebugStateResponse []*DebugStateElement

// SnapshotState renders the entire game state to JSON, for debug tooling and
// tests. Iteration order follows archetype order and is stable between
// structural changes.
func SnapshotState(w *World) (DebugStateResponse, error) {
	result := make(DebugStateResponse, 0, w.EntityCount())
	var snapErr error
	w.Search(filter.All()).Each(func(e types.Entity) bool {
		ids, ok := w.store.ComponentIDsFor(e)
		if !ok {
			return true
		}
		element := &DebugStateElement{
			Entity:     e,
			Components: make(map[string]json.RawMessage, len(ids)),
		}
		for _, id := range ids {
			meta, err := w.registry.GetComponentByID(id)
			if err != nil {
				snapErr = err
				return false
			}
			value, ok := w.store.Value(e, id)
			if !ok {
				continue
			}
			data, err := meta.Encode(value)
			if err != nil {
				snapErr = err
				return false
			}
			element.Components[meta.Name()] = data
		}
		result = append(result, element)
		return true
	})
	if snapErr != nil {
		return nil, snapErr
	}
	return result, nil
}

// DebugState holds the latest world snapshot while Enabled is true. It is
// disabled by default; tooling and tests flip Enabled through GetResource and
// read State after the tick completes.
type DebugState struct {
	Enabled bool
	Tick    types.Tick
	State   DebugStateResponse
}

// debugPlugin refreshes a DebugState resource at the end of every tick it is
// enabled for.
type debugPlugin struct{}

var _ Plugin = (*debugPlugin)(nil)

func newDebugPlugin() *debugPlugin {
	return &debugPlugin{}
}

func (p *debugPlugin) Build(app *App) error {
	InsertResource(app.World(), DebugState{})
	return app.AddSystem(StageLast, debugSnapshotSystem,
		RunIf(ResourceMatches(func(s *DebugState) bool { return s.Enabled })),
	)
}

func (p *debugPlugin) Cleanup(app *App) error {
	RemoveResource[DebugState](app.World())
	return nil
}

func debugSnapshotSystem(ctx WorldContext) error {
	w := ctx.World()
	snapshot, err := SnapshotState(w)
	if err != nil {
		return err
	}
	state, ok := GetResource[DebugState](w)
	if !ok {
		return nil
	}
	state.Tick = w.CurrentTick()
	state.State = snapshot
	return nil
}
