package veldt

import (
	"github.com/veldtgames/veldt/events"
)

// SendEvent queues an event on the world's bus. It stays readable for the
// rest of the current tick plus the next one, then the end-of-tick buffer
// swap drops it.
func SendEvent[T any](w *World, event T) {
	events.Send(w.events, event)
}

// ReadEvents returns the events of type T still in the two-tick window,
// previous tick's first, each in send order. Reading does not consume;
// readers needing exactly-once delivery must track their own cursor.
func ReadEvents[T any](w *World) []T {
	return events.Read[T](w.events)
}

// EventWriter returns a writer bound to the world's bus, for systems that
// send one event type repeatedly.
func EventWriter[T any](w *World) events.Writer[T] {
	return events.NewWriter[T](w.events)
}

// EventReader returns a reader bound to the world's bus.
func EventReader[T any](w *World) events.Reader[T] {
	return events.NewReader[T](w.events)
}
