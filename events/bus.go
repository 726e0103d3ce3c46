// Package events implements the engine's in-process event queues. Queues are
// double-buffered per event type: an event stays readable for the tick it was
// sent in plus the following tick, then it is dropped. Delivery order within
// one type is send order.
package events

import (
	"reflect"
)

// Bus holds the per-type queues. Events written during the current tick land
// in the front buffer; Swap rotates front to back at end of tick. The Bus is
// not safe for concurrent use.
type Bus struct {
	front map[reflect.Type][]any
	back  map[reflect.Type][]any
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		front: map[reflect.Type][]any{},
		back:  map[reflect.Type][]any{},
	}
}

// Send appends the event to the current tick's buffer.
func Send[T any](b *Bus, event T) {
	key := reflect.TypeFor[T]()
	b.front[key] = append(b.front[key], event)
}

// Read returns the events of type T still in the window: those sent during
// the previous tick followed by those sent during the current one.
func Read[T any](b *Bus) []T {
	key := reflect.TypeFor[T]()
	previous := b.back[key]
	current := b.front[key]
	out := make([]T, 0, len(previous)+len(current))
	for _, e := range previous {
		out = append(out, e.(T))
	}
	for _, e := range current {
		out = append(out, e.(T))
	}
	return out
}

// Swap rotates the buffers. Current-tick events become previous-tick events
// and everything older is dropped. The driver calls this once per tick.
func (b *Bus) Swap() {
	b.front, b.back = b.back, b.front
	clear(b.front)
}

// Clear drops every buffered event in both buffers.
func (b *Bus) Clear() {
	clear(b.front)
	clear(b.back)
}

// Len returns the number of buffered events across both buffers.
func (b *Bus) Len() int {
	n := 0
	for _, evs := range b.front {
		n += len(evs)
	}
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}

// Writer sends events of one type into a bus.
type Writer[T any] struct {
	bus *Bus
}

// NewWriter returns a writer bound to the bus.
func NewWriter[T any](b *Bus) Writer[T] {
	return Writer[T]{bus: b}
}

// Send appends the event to the current tick's buffer.
func (w Writer[T]) Send(event T) {
	Send(w.bus, event)
}

// Reader reads events of one type from a bus.
type Reader[T any] struct {
	bus *Bus
}

// NewReader returns a reader bound to the bus.
func NewReader[T any](b *Bus) Reader[T] {
	return Reader[T]{bus: b}
}

// Read returns the events still in the two-tick window.
func (r Reader[T]) Read() []T {
	return Read[T](r.bus)
}
