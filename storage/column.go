package storage

import (
	"github.com/veldtgames/veldt/types"
)

// Column is one component's dense value array within an archetype table,
// index-aligned with the archetype's entity list. A column owns a concrete
// value slice plus the per-row tick stamps used by change detection.
type Column interface {
	// Len returns the number of rows.
	Len() int
	// Append grows the column by one row holding value, stamped as added at now.
	Append(value any, now types.Tick)
	// Value returns the value at row.
	Value(row int) any
	// Pointer returns a pointer to the value at row (a *T for a column of T).
	// The pointer stays valid until the next structural change to the table.
	Pointer(row int) any
	// Set overwrites the value at row and stamps it changed at now.
	Set(row int, value any, now types.Tick)
	// Ticks returns the tick stamps for row.
	Ticks(row int) types.ComponentTicks
	// SwapRemove removes row by moving the last row into its place.
	SwapRemove(row int)
	// CopyTo appends row's value and stamps onto dst, which must be a column
	// of the same component type.
	CopyTo(row int, dst Column)
	// Reset drops all rows, keeping capacity.
	Reset()
}

// ColumnMaker constructs an empty Column for one component type. The store
// keeps one maker per registered ComponentID so archetype tables can be built
// without knowing concrete types.
type ColumnMaker func() Column

type column[T types.Component] struct {
	values []T
	ticks  []types.ComponentTicks
}

// NewColumnMaker returns a ColumnMaker producing columns of T.
func NewColumnMaker[T types.Component]() ColumnMaker {
	return func() Column {
		return &column[T]{}
	}
}

func (c *column[T]) Len() int {
	return len(c.values)
}

func (c *column[T]) Append(value any, now types.Tick) {
	c.values = append(c.values, value.(T))
	c.ticks = append(c.ticks, types.NewComponentTicks(now))
}

func (c *column[T]) Value(row int) any {
	return c.values[row]
}

func (c *column[T]) Pointer(row int) any {
	return &c.values[row]
}

func (c *column[T]) Set(row int, value any, now types.Tick) {
	c.values[row] = value.(T)
	c.ticks[row].Mark(now)
}

func (c *column[T]) Ticks(row int) types.ComponentTicks {
	return c.ticks[row]
}

func (c *column[T]) SwapRemove(row int) {
	last := len(c.values) - 1
	c.values[row] = c.values[last]
	c.ticks[row] = c.ticks[last]
	// Zero the vacated slot so pointers inside T don't pin memory.
	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
	c.ticks = c.ticks[:last]
}

func (c *column[T]) CopyTo(row int, dst Column) {
	d := dst.(*column[T])
	d.values = append(d.values, c.values[row])
	d.ticks = append(d.ticks, c.ticks[row])
}

func (c *column[T]) Reset() {
	clear(c.values)
	c.values = c.values[:0]
	c.ticks = c.ticks[:0]
}
