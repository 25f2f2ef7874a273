package collection

import (
	"fmt"
	"strings"
)

// Origin says which physical source a merged position comes from.
type Origin uint8

const (
	Base Origin = iota
	Overlay
)

func (o Origin) String() string {
	switch o {
	case Base:
		return "base"
	case Overlay:
		return "overlay"
	}
	return fmt.Sprintf("Origin(%d)", uint8(o))
}

// TaggedPosition points at one raw index of one source.
type TaggedPosition struct {
	Origin Origin
	Raw    int
}

func (p TaggedPosition) String() string {
	return fmt.Sprintf("%s[%d]", p.Origin, p.Raw)
}

// MergeIndex is the ordered, deduplicated union of a base and an overlay.
// It is never modified after BuildMergeIndex returns it.
type MergeIndex struct {
	Positions []TaggedPosition

	// Collapsed counts identity ties folded into their base slot.
	Collapsed int
}

func (m MergeIndex) Len() int { return len(m.Positions) }

// MergeBase is the base side of a merge as seen by the builder.
type MergeBase[E any] interface {
	Size() int
	Key(raw int, mode SortMode) (string, error)
	Item(raw int) (*E, error)
}

// BuildMergeIndex merges base and overlay, both already sorted ascending
// under mode. Items with equal keys are emitted overlay first, unless they
// are the same pointer, in which case only the base slot is kept.
func BuildMergeIndex[E any](base MergeBase[E], overlay []*E, mode SortMode) (MergeIndex, error) {
	return buildMergeIndex(base, overlay, mode, keysFor[E]())
}

func buildMergeIndex[E any](base MergeBase[E], overlay []*E, mode SortMode, overlayKey itemKeyFunc[E]) (MergeIndex, error) {
	baseSize, overlaySize := base.Size(), len(overlay)

	// Key support is per kind, so probing the heads rejects an unsupported
	// mode even when one side would otherwise never be keyed.
	if baseSize > 0 {
		if _, err := base.Key(0, mode); err != nil {
			return MergeIndex{}, err
		}
	}
	if overlaySize > 0 {
		if _, err := overlayKey(overlay[0], mode); err != nil {
			return MergeIndex{}, err
		}
	}

	out := make([]TaggedPosition, 0, baseSize+overlaySize)
	collapsed := 0

	var baseKey, overlayKeyStr string
	baseKeyAt, overlayKeyAt := -1, -1

	i, j := 0, 0
	for i < baseSize || j < overlaySize {
		var cmp int
		switch {
		case i < baseSize && j < overlaySize:
			if baseKeyAt != i {
				k, err := base.Key(i, mode)
				if err != nil {
					return MergeIndex{}, fmt.Errorf("base key %d: %w", i, err)
				}
				baseKey, baseKeyAt = k, i
			}
			if overlayKeyAt != j {
				k, err := overlayKey(overlay[j], mode)
				if err != nil {
					return MergeIndex{}, fmt.Errorf("overlay key %d: %w", j, err)
				}
				overlayKeyStr, overlayKeyAt = k, j
			}
			cmp = strings.Compare(overlayKeyStr, baseKey)
		case i >= baseSize:
			cmp = -1
		default:
			cmp = 1
		}

		switch {
		case cmp > 0:
			out = append(out, TaggedPosition{Origin: Base, Raw: i})
			i++
		case cmp < 0:
			out = append(out, TaggedPosition{Origin: Overlay, Raw: j})
			j++
		default:
			item, err := base.Item(i)
			if err != nil {
				return MergeIndex{}, err
			}
			if item != overlay[j] {
				out = append(out, TaggedPosition{Origin: Overlay, Raw: j})
			} else {
				collapsed++
			}
			j++
			out = append(out, TaggedPosition{Origin: Base, Raw: i})
			i++
		}
	}

	return MergeIndex{Positions: out, Collapsed: collapsed}, nil
}
