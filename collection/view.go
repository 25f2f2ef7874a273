// Package collection presents a base item source and an overlay of
// materialized items as one sorted, deduplicated, positionally addressable
// sequence.
//
// A View is driven by a single consumer. Merge results are published through
// an atomic pointer so a reader never sees a half built index, but the
// materialization cache itself is not synchronized.
package collection

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type viewBase[E any] interface {
	MergeBase[E]
	materialized() int
	release() error
}

// merged is one published merge result. It is replaced, never modified.
type merged[E any] struct {
	index   MergeIndex
	overlay []*E
	mode    SortMode
}

// View is a lazily merged, ordered collection of *E.
type View[E any] struct {
	base     viewBase[E]
	keys     itemKeyFunc[E]
	state    atomic.Pointer[merged[E]]
	log      zerolog.Logger
	released bool
}

// NewRowView returns a view whose base rows come from c and are materialized
// through s.Construct on first access.
func NewRowView[E any](c Cursor, s Strategy[E], opts ...Option) *View[E] {
	o := applyOptions(opts)
	rows := NewRowAccessor(c)
	return &View[E]{
		base: &rowBase[E]{
			rows:     rows,
			strategy: s,
			cache:    NewMaterializationCache[E](rows.Size()),
		},
		keys: keysFor[E](),
		log:  o.logger.With().Str("kind", s.Kind).Logger(),
	}
}

// NewListView returns a view over an already materialized base list.
func NewListView[E any](items []*E, opts ...Option) *View[E] {
	o := applyOptions(opts)
	keys := keysFor[E]()
	var probe *E
	return &View[E]{
		base: &listBase[E]{list: NewListAccessor(items), keys: keys},
		keys: keys,
		log:  o.logger.With().Str("kind", fmt.Sprintf("%T", probe)).Logger(),
	}
}

// Size is the merge index length when an overlay is set, else the base size.
// A released view is empty.
func (v *View[E]) Size() int {
	if v.released {
		return 0
	}
	if st := v.state.Load(); st != nil {
		return st.index.Len()
	}
	return v.base.Size()
}

// Get resolves a virtual position to an item.
func (v *View[E]) Get(position int) (*E, error) {
	if v.released {
		return nil, ErrReleased
	}
	st := v.state.Load()
	if st == nil {
		if position < 0 || position >= v.base.Size() {
			return nil, fmt.Errorf("%w: position %d, size %d", ErrOutOfRange, position, v.base.Size())
		}
		return v.base.Item(position)
	}

	if position < 0 || position >= st.index.Len() {
		return nil, fmt.Errorf("%w: position %d, size %d", ErrOutOfRange, position, st.index.Len())
	}
	p := st.index.Positions[position]
	if p.Origin == Overlay {
		return st.overlay[p.Raw], nil
	}
	return v.base.Item(p.Raw)
}

// SetOverlay merges items, which must already be sorted under mode, with the
// base and publishes the result. On error the previous state stays in place.
// items is retained, not copied, until the next SetOverlay or ClearOverlay.
func (v *View[E]) SetOverlay(items []*E, mode SortMode) error {
	if v.released {
		return ErrReleased
	}
	idx, err := buildMergeIndex(v.base, items, mode, v.keys)
	if err != nil {
		v.log.Warn().Err(err).Stringer("mode", mode).Msg("merge index rebuild failed, keeping previous index")
		return err
	}
	v.state.Store(&merged[E]{index: idx, overlay: items, mode: mode})

	v.log.Debug().
		Stringer("mode", mode).
		Int("base", v.base.Size()).
		Int("overlay", len(items)).
		Int("merged", idx.Len()).
		Int("collapsed", idx.Collapsed).
		Msg("merge index rebuilt")
	return nil
}

// ClearOverlay drops the merge index; the view passes straight through to the base.
func (v *View[E]) ClearOverlay() {
	v.state.Store(nil)
}

// Mode reports the sort mode of the current merge index, if any.
func (v *View[E]) Mode() (SortMode, bool) {
	if st := v.state.Load(); st != nil {
		return st.mode, true
	}
	return 0, false
}

// Positions returns a copy of the current merge index, or nil when there is none.
func (v *View[E]) Positions() []TaggedPosition {
	st := v.state.Load()
	if st == nil {
		return nil
	}
	return append([]TaggedPosition(nil), st.index.Positions...)
}

// Materialized is the number of base rows built so far.
func (v *View[E]) Materialized() int {
	return v.base.materialized()
}

// Release frees the base resource and discards cached items. It is safe to
// call more than once.
func (v *View[E]) Release() error {
	if v.released {
		return nil
	}
	v.released = true
	v.state.Store(nil)
	return v.base.release()
}

type rowBase[E any] struct {
	rows     *RowAccessor
	strategy Strategy[E]
	cache    *MaterializationCache[E]
}

func (b *rowBase[E]) Size() int { return b.rows.Size() }

func (b *rowBase[E]) Key(raw int, mode SortMode) (string, error) {
	col, err := b.strategy.column(mode)
	if err != nil {
		return "", err
	}
	return b.rows.String(raw, col)
}

func (b *rowBase[E]) Item(raw int) (*E, error) {
	return b.cache.Get(b.rows, raw, b.strategy.Construct)
}

func (b *rowBase[E]) materialized() int { return b.cache.Len() }

func (b *rowBase[E]) release() error {
	b.cache.Reset()
	return b.rows.Release()
}

type listBase[E any] struct {
	list *ListAccessor[E]
	keys itemKeyFunc[E]
}

func (b *listBase[E]) Size() int { return b.list.Size() }

func (b *listBase[E]) Key(raw int, mode SortMode) (string, error) {
	item, err := b.list.Item(raw)
	if err != nil {
		return "", err
	}
	return b.keys(item, mode)
}

func (b *listBase[E]) Item(raw int) (*E, error) { return b.list.Item(raw) }

func (b *listBase[E]) materialized() int { return 0 }

func (b *listBase[E]) release() error { return b.list.Release() }
