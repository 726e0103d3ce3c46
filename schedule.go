package veldt

import (
	"fmt"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/veldtgames/veldt/log"
	"github.com/veldtgames/veldt/statsd"
)

// Stage names one phase of a tick. Stages run in the fixed order their
// schedule declares; every system in a stage completes before the next stage
// starts.
type Stage string

// The main schedule's stages.
const (
	StageFirst      Stage = "first"
	StagePreUpdate  Stage = "pre_update"
	StageUpdate     Stage = "update"
	StagePostUpdate Stage = "post_update"
	StageLast       Stage = "last"
)

// Stages for a render-style schedule driven outside the main tick.
const (
	StageExtract Stage = "extract"
	StagePrepare Stage = "prepare"
	StageQueue   Stage = "queue"
	StageRender  Stage = "render"
	StageCleanup Stage = "cleanup"
)

// StageInit is the single stage of the app's init schedule, which runs
// exactly once before the first tick.
const StageInit Stage = "init"

// MainStages returns the default tick stages in execution order.
func MainStages() []Stage {
	return []Stage{StageFirst, StagePreUpdate, StageUpdate, StagePostUpdate, StageLast}
}

// RenderStages returns the render schedule's stages in execution order.
func RenderStages() []Stage {
	return []Stage{StageExtract, StagePrepare, StageQueue, StageRender, StageCleanup}
}

// setConfig holds the ordering constraints declared for one named set.
type setConfig struct {
	name   string
	before []string
	after  []string
}

// SetOption declares an ordering constraint on a set.
type SetOption func(*setConfig)

// Before orders every system in the configured set ahead of every system in
// other, within each stage both sets appear in.
func Before(other string) SetOption {
	return func(c *setConfig) {
		c.before = append(c.before, other)
	}
}

// After orders every system in the configured set behind every system in
// other, within each stage both sets appear in.
func After(other string) SetOption {
	return func(c *setConfig) {
		c.after = append(c.after, other)
	}
}

// Schedule runs systems grouped into stages. Within a stage, systems run in
// registration order except where set constraints reorder whole sets; the
// resolved order is computed once at build time and is deterministic. A
// Schedule is not safe for concurrent use.
type Schedule struct {
	name     string
	stages   []Stage
	stageSet map[Stage]struct{}

	systems    map[Stage][]*systemEntry
	systemSeen map[string]struct{}
	sets       map[string]*setConfig
	nextIdx    int

	resolved map[Stage][]*systemEntry
	built    bool

	// currentSystem is the name of the system that is currently running.
	currentSystem *string
}

// NewSchedule creates a schedule with the given stage order. Most callers
// want NewMainSchedule or NewRenderSchedule.
func NewSchedule(name string, stages []Stage) *Schedule {
	s := &Schedule{
		name:       name,
		stages:     slices.Clone(stages),
		stageSet:   make(map[Stage]struct{}, len(stages)),
		systems:    make(map[Stage][]*systemEntry),
		systemSeen: make(map[string]struct{}),
		sets:       make(map[string]*setConfig),
	}
	for _, stage := range stages {
		s.stageSet[stage] = struct{}{}
	}
	return s
}

// NewMainSchedule creates the standard five-stage tick schedule.
func NewMainSchedule() *Schedule {
	return NewSchedule("main", MainStages())
}

// NewRenderSchedule creates the five-stage render schedule.
func NewRenderSchedule() *Schedule {
	return NewSchedule("render", RenderStages())
}

// AddSystem registers a system in the given stage. The system's name is
// derived from its function symbol unless WithSystemName overrides it; names
// must be unique within the schedule.
func (s *Schedule) AddSystem(stage Stage, system System, opts ...SystemOption) error {
	if _, ok := s.stageSet[stage]; !ok {
		return eris.Errorf("schedule %q has no stage %q", s.name, stage)
	}
	entry := &systemEntry{
		name:      systemName(system),
		fn:        system,
		stage:     stage,
		insertIdx: s.nextIdx,
	}
	for _, opt := range opts {
		opt(entry)
	}
	if _, ok := s.systemSeen[entry.name]; ok {
		return eris.Wrapf(ErrSystemAlreadyRegistered, "system %q in schedule %q", entry.name, s.name)
	}
	s.systemSeen[entry.name] = struct{}{}
	s.systems[stage] = append(s.systems[stage], entry)
	s.nextIdx++
	s.built = false
	return nil
}

// AddSystems registers multiple systems in the given stage, in order, with no
// per-system options. Registration stops at the first failure.
func (s *Schedule) AddSystems(stage Stage, systems ...System) error {
	for _, system := range systems {
		if err := s.AddSystem(stage, system); err != nil {
			return err
		}
	}
	return nil
}

// ConfigureSet declares ordering constraints for the named set. Calling it
// again for the same set merges the constraints.
func (s *Schedule) ConfigureSet(name string, opts ...SetOption) {
	cfg, ok := s.sets[name]
	if !ok {
		cfg = &setConfig{name: name}
		s.sets[name] = cfg
	}
	for _, opt := range opts {
		opt(cfg)
	}
	s.built = false
}

// Build resolves the per-stage system order from the set constraints. A
// constraint cycle fails with ErrScheduleCycle; a constraint naming a set
// that exists nowhere in the schedule is a configuration error. Run builds
// lazily, so calling Build directly is only needed to surface configuration
// errors early.
func (s *Schedule) Build() error {
	if err := s.checkSetReferences(); err != nil {
		return err
	}
	resolved := make(map[Stage][]*systemEntry, len(s.stages))
	for _, stage := range s.stages {
		order, err := s.buildStage(stage)
		if err != nil {
			return err
		}
		resolved[stage] = order
	}
	s.resolved = resolved
	s.built = true
	return nil
}

// Run executes one pass over the schedule: stages in declared order, systems
// in resolved order, each gated by its run conditions. Commands queued by a
// system are applied as soon as it returns; a system error aborts the pass
// and discards that system's unapplied commands.
func (s *Schedule) Run(w *World) error {
	if !s.built {
		if err := s.Build(); err != nil {
			return err
		}
	}

	allSystemsStart := time.Now()
	ctx := newWorldContext(w)
	for _, stage := range s.stages {
		for _, entry := range s.resolved[stage] {
			if !s.shouldRun(w, entry) {
				continue
			}
			name := entry.name
			s.currentSystem = &name

			ctx.SetLogger(*log.CreateSystemLogger(w.logger, entry.name))

			systemStart := time.Now()
			if err := entry.fn(ctx); err != nil {
				s.currentSystem = nil
				ctx.commands.discard()
				return eris.Wrapf(err, "system %s generated an error", entry.name)
			}
			if err := ctx.commands.Apply(w); err != nil {
				s.currentSystem = nil
				return eris.Wrapf(err, "system %s queued commands that failed", entry.name)
			}
			statsd.EmitTickStat(systemStart, entry.name)
		}
	}
	s.currentSystem = nil
	statsd.EmitTickStat(allSystemsStart, "all_systems")
	return nil
}

// GetSystemNames returns the schedule's system names in execution order when
// built, otherwise in registration order per stage.
func (s *Schedule) GetSystemNames() []string {
	names := make([]string, 0, len(s.systemSeen))
	for _, stage := range s.stages {
		entries := s.systems[stage]
		if s.built {
			entries = s.resolved[stage]
		}
		for _, entry := range entries {
			names = append(names, entry.name)
		}
	}
	return names
}

// GetCurrentSystem returns the name of the system currently running, or
// "no_system" between systems.
func (s *Schedule) GetCurrentSystem() string {
	if s.currentSystem == nil {
		return "no_system"
	}
	return *s.currentSystem
}

// SystemMetadata returns a diagnostic description of every registered system,
// per stage in registration order.
func (s *Schedule) SystemMetadata() []SystemMeta {
	metas := make([]SystemMeta, 0, len(s.systemSeen))
	for _, stage := range s.stages {
		for _, entry := range s.systems[stage] {
			metas = append(metas, SystemMeta{
				Name:           entry.name,
				Stage:          entry.stage,
				Set:            entry.set,
				Reads:          slices.Clone(entry.reads),
				Writes:         slices.Clone(entry.writes),
				ResourceReads:  slices.Clone(entry.resourceReads),
				ResourceWrites: slices.Clone(entry.resourceWrites),
			})
		}
	}
	return metas
}

// IsSystemsRegistered reports whether any system has been added.
func (s *Schedule) IsSystemsRegistered() bool {
	return len(s.systemSeen) > 0
}

func (s *Schedule) shouldRun(w *World, entry *systemEntry) bool {
	for _, cond := range entry.conditions {
		if !cond(w) {
			return false
		}
	}
	return true
}

// checkSetReferences rejects constraints naming sets that exist nowhere in
// the schedule, which almost always indicates a typo.
func (s *Schedule) checkSetReferences() error {
	known := make(map[string]struct{}, len(s.sets))
	for name := range s.sets {
		known[name] = struct{}{}
	}
	for _, entries := range s.systems {
		for _, entry := range entries {
			if entry.set != "" {
				known[entry.set] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(s.sets))
	for name := range s.sets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cfg := s.sets[name]
		for _, other := range slices.Concat(cfg.before, cfg.after) {
			if _, ok := known[other]; !ok {
				return eris.Errorf("schedule %q: set %q is ordered against unknown set %q", s.name, name, other)
			}
		}
	}
	return nil
}

// scheduleNode is one set (explicit or implicit singleton) during the
// per-stage topological sort.
type scheduleNode struct {
	key      string
	firstIdx int
	systems  []*systemEntry
}

// buildStage resolves one stage's order with a Kahn topological sort over
// sets. Ties are broken by each set's earliest registration index, so the
// result is deterministic and unconstrained systems keep registration order.
func (s *Schedule) buildStage(stage Stage) ([]*systemEntry, error) {
	entries := s.systems[stage]
	if len(entries) == 0 {
		return nil, nil
	}

	// Group systems into nodes. Systems without a set become singleton nodes
	// pinned at their own registration position.
	nodes := make([]*scheduleNode, 0, len(entries))
	nodeByKey := make(map[string]*scheduleNode, len(entries))
	for _, entry := range entries {
		key := entry.set
		if key == "" {
			key = fmt.Sprintf("\x00singleton/%d", entry.insertIdx)
		}
		node, ok := nodeByKey[key]
		if !ok {
			node = &scheduleNode{key: key, firstIdx: entry.insertIdx}
			nodeByKey[key] = node
			nodes = append(nodes, node)
		}
		node.systems = append(node.systems, entry)
	}

	// Constraints only apply between sets that both appear in this stage;
	// edges to sets living in other stages are skipped.
	edges := make(map[string][]string)
	indegree := make(map[string]int, len(nodes))
	for _, node := range nodes {
		indegree[node.key] = 0
	}
	for _, node := range nodes {
		cfg, ok := s.sets[node.key]
		if !ok {
			continue
		}
		for _, other := range cfg.before {
			if _, present := nodeByKey[other]; !present {
				continue
			}
			edges[node.key] = append(edges[node.key], other)
			indegree[other]++
		}
		for _, other := range cfg.after {
			if _, present := nodeByKey[other]; !present {
				continue
			}
			edges[other] = append(edges[other], node.key)
			indegree[node.key]++
		}
	}

	var ready []*scheduleNode
	for _, node := range nodes {
		if indegree[node.key] == 0 {
			ready = append(ready, node)
		}
	}
	resolvedNodes := make([]*scheduleNode, 0, len(nodes))
	for len(ready) > 0 {
		// Pop the ready node registered earliest.
		minAt := 0
		for i, node := range ready {
			if node.firstIdx < ready[minAt].firstIdx {
				minAt = i
			}
		}
		node := ready[minAt]
		ready = slices.Delete(ready, minAt, minAt+1)
		resolvedNodes = append(resolvedNodes, node)
		for _, otherKey := range edges[node.key] {
			indegree[otherKey]--
			if indegree[otherKey] == 0 {
				ready = append(ready, nodeByKey[otherKey])
			}
		}
	}

	if len(resolvedNodes) != len(nodes) {
		var remaining []string
		for _, node := range nodes {
			if indegree[node.key] > 0 {
				remaining = append(remaining, node.key)
			}
		}
		slices.Sort(remaining)
		return nil, eris.Wrapf(ErrScheduleCycle, "schedule %q stage %q: sets %v", s.name, stage, remaining)
	}

	order := make([]*systemEntry, 0, len(entries))
	for _, node := range resolvedNodes {
		order = append(order, node.systems...)
	}
	return order, nil
}
