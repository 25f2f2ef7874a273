package collection

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Factory builds a domain item from the row at a raw position.
type Factory[E any] func(rows *RowAccessor, raw int) (*E, error)

// MaterializationCache memoizes factory results by raw position for the
// lifetime of one RowAccessor. Slots are dense; present tracks which are filled.
type MaterializationCache[E any] struct {
	items   []*E
	present *roaring.Bitmap
}

func NewMaterializationCache[E any](size int) *MaterializationCache[E] {
	return &MaterializationCache[E]{
		items:   make([]*E, size),
		present: roaring.New(),
	}
}

// Get returns the cached item at raw, constructing it on first use.
// A factory error is returned as is and nothing is cached.
func (c *MaterializationCache[E]) Get(rows *RowAccessor, raw int, factory Factory[E]) (*E, error) {
	if raw < 0 || raw >= len(c.items) {
		return nil, fmt.Errorf("%w: raw index %d, size %d", ErrOutOfRange, raw, len(c.items))
	}
	if c.present.Contains(uint32(raw)) {
		return c.items[raw], nil
	}
	item, err := factory(rows, raw)
	if err != nil {
		return nil, err
	}
	c.items[raw] = item
	c.present.Add(uint32(raw))
	return item, nil
}

// Len is the number of materialized entries.
func (c *MaterializationCache[E]) Len() int {
	return int(c.present.GetCardinality())
}

func (c *MaterializationCache[E]) Reset() {
	clear(c.items)
	c.present.Clear()
}
