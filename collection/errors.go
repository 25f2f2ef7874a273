package collection

import "errors"

var (
	// ErrOutOfRange is returned when a position or raw index falls outside the current bounds.
	ErrOutOfRange = errors.New("position out of range")

	// ErrUnsupportedSortMode is returned when a sort mode has no key for an item kind.
	ErrUnsupportedSortMode = errors.New("unsupported sort mode")

	// ErrReleased is returned by row reads after the view or accessor was released.
	ErrReleased = errors.New("accessor released")

	// ErrNotRowOriented is returned by FieldAt on accessors backed by materialized items.
	ErrNotRowOriented = errors.New("accessor is not row oriented")
)
