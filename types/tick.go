package types

// Tick is the global frame counter. The driver advances it exactly once per
// completed tick; change detection compares component stamps against it.
type Tick uint64

// ComponentTicks records when a component slot was first inserted and when
// its value was last overwritten through the mutation API. Changed never
// precedes Added.
type ComponentTicks struct {
	Added   Tick
	Changed Tick
}

// NewComponentTicks stamps a freshly inserted component slot.
func NewComponentTicks(now Tick) ComponentTicks {
	return ComponentTicks{Added: now, Changed: now}
}

// Mark records an overwrite of the component value.
func (t *ComponentTicks) Mark(now Tick) {
	t.Changed = now
}

// IsAddedSince reports whether the slot was inserted after lastSeen.
func (t ComponentTicks) IsAddedSince(lastSeen Tick) bool {
	return t.Added > lastSeen
}

// IsChangedSince reports whether the slot was written after lastSeen.
func (t ComponentTicks) IsChangedSince(lastSeen Tick) bool {
	return t.Changed > lastSeen
}
