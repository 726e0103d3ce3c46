package veldt_test

import (
	"testing"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/assert"
)

type LevelUpEvent struct {
	Level int
}

type QuakeEvent struct {
	Magnitude float64
}

func TestSendEventIsReadableWithinTheTick(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	veldt.SendEvent(w, LevelUpEvent{Level: 2})
	veldt.SendEvent(w, LevelUpEvent{Level: 3})

	got := veldt.ReadEvents[LevelUpEvent](w)
	assert.DeepEqual(t, got, []LevelUpEvent{{Level: 2}, {Level: 3}})

	// Reading does not consume.
	assert.Len(t, veldt.ReadEvents[LevelUpEvent](w), 2)
}

func TestFlushEventsKeepsATwoTickWindow(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	veldt.SendEvent(w, QuakeEvent{Magnitude: 6.1})

	// End of the send tick: the event survives into the next tick.
	w.FlushEvents()
	assert.Len(t, veldt.ReadEvents[QuakeEvent](w), 1)

	// End of the following tick: the event ages out.
	w.FlushEvents()
	assert.Len(t, veldt.ReadEvents[QuakeEvent](w), 0)
}

func TestReadEventsOrdersPreviousTickFirst(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	veldt.SendEvent(w, LevelUpEvent{Level: 1})
	w.FlushEvents()
	veldt.SendEvent(w, LevelUpEvent{Level: 2})

	got := veldt.ReadEvents[LevelUpEvent](w)
	assert.DeepEqual(t, got, []LevelUpEvent{{Level: 1}, {Level: 2}})
}

func TestEventWriterAndReaderRoundTrip(t *testing.T) {
	w, err := veldt.NewWorld()
	assert.NilError(t, err)

	writer := veldt.EventWriter[QuakeEvent](w)
	writer.Send(QuakeEvent{Magnitude: 4.5})
	writer.Send(QuakeEvent{Magnitude: 7.2})

	reader := veldt.EventReader[QuakeEvent](w)
	assert.DeepEqual(t, reader.Read(), []QuakeEvent{{Magnitude: 4.5}, {Magnitude: 7.2}})

	// Each event type rides its own buffer.
	assert.Len(t, veldt.ReadEvents[LevelUpEvent](w), 0)
}
