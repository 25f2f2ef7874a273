package collection

import (
	"fmt"

	"github.com/spf13/cast"
)

// Cursor is what a row-oriented store hands to a view: a counted, randomly
// positionable set of rows that owns an open resource until Close.
type Cursor interface {
	Count() int
	Field(raw, column int) (any, error)
	Close() error
}

// Accessor is the base side of a view.
type Accessor interface {
	// Size returns the number of raw positions.
	Size() int

	// FieldAt returns the raw value of a column at a raw position.
	FieldAt(raw, column int) (any, error)

	// Release frees the underlying resource. Calling it more than once is a no-op.
	Release() error
}

// RowAccessor wraps a Cursor with bounds checks and one-shot release.
type RowAccessor struct {
	cursor   Cursor
	size     int
	released bool
}

func NewRowAccessor(c Cursor) *RowAccessor {
	return &RowAccessor{cursor: c, size: c.Count()}
}

func (a *RowAccessor) Size() int { return a.size }

func (a *RowAccessor) FieldAt(raw, column int) (any, error) {
	if a.released {
		return nil, ErrReleased
	}
	if raw < 0 || raw >= a.size {
		return nil, fmt.Errorf("%w: raw index %d, size %d", ErrOutOfRange, raw, a.size)
	}
	return a.cursor.Field(raw, column)
}

// String reads a column as text. NULL reads as the empty string.
func (a *RowAccessor) String(raw, column int) (string, error) {
	v, err := a.FieldAt(raw, column)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("row %d column %d: %w", raw, column, err)
	}
	return s, nil
}

// Int reads a column as an integer. NULL reads as zero.
func (a *RowAccessor) Int(raw, column int) (int, error) {
	v, err := a.FieldAt(raw, column)
	if err != nil {
		return 0, err
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("row %d column %d: %w", raw, column, err)
	}
	return n, nil
}

func (a *RowAccessor) Release() error {
	if a.released {
		return nil
	}
	a.released = true
	return a.cursor.Close()
}

// ListAccessor serves an already materialized slice of items.
type ListAccessor[E any] struct {
	items []*E
}

func NewListAccessor[E any](items []*E) *ListAccessor[E] {
	return &ListAccessor[E]{items: items}
}

func (a *ListAccessor[E]) Size() int { return len(a.items) }

func (a *ListAccessor[E]) FieldAt(raw, column int) (any, error) {
	return nil, ErrNotRowOriented
}

// Item is a direct indexed read.
func (a *ListAccessor[E]) Item(raw int) (*E, error) {
	if raw < 0 || raw >= len(a.items) {
		return nil, fmt.Errorf("%w: raw index %d, size %d", ErrOutOfRange, raw, len(a.items))
	}
	return a.items[raw], nil
}

func (a *ListAccessor[E]) Release() error { return nil }

var (
	_ Accessor = (*RowAccessor)(nil)
	_ Accessor = (*ListAccessor[struct{}])(nil)
)
