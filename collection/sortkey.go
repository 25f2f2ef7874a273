package collection

import "fmt"

// Named is implemented by items that have a primary sortable name.
type Named interface {
	Name() string
}

// ArtistNamed is implemented by items that belong to an artist.
type ArtistNamed interface {
	ArtistName() string
}

// Strategy describes how one item kind is read out of rows: the factory that
// materializes a row and the column holding the key for each sort mode.
type Strategy[E any] struct {
	Kind      string
	Construct Factory[E]
	Columns   map[SortMode]int
}

func (s Strategy[E]) column(mode SortMode) (int, error) {
	col, ok := s.Columns[mode]
	if !ok {
		return 0, unsupported(s.Kind, mode)
	}
	return col, nil
}

// KeyOf returns the sort key of a materialized item under mode.
func KeyOf(item any, mode SortMode) (string, error) {
	switch mode {
	case ByPrimaryName, ByRecency:
		if n, ok := item.(Named); ok {
			return n.Name(), nil
		}
	case ByAssociatedArtistName:
		if a, ok := item.(ArtistNamed); ok {
			return a.ArtistName(), nil
		}
	}
	return "", unsupported(fmt.Sprintf("%T", item), mode)
}

type itemKeyFunc[E any] func(item *E, mode SortMode) (string, error)

// keysFor resolves the capabilities of *E once so the per-item path is a
// plain method call.
func keysFor[E any]() itemKeyFunc[E] {
	var probe *E
	kind := fmt.Sprintf("%T", probe)
	_, named := any(probe).(Named)
	_, byArtist := any(probe).(ArtistNamed)

	return func(item *E, mode SortMode) (string, error) {
		switch mode {
		case ByPrimaryName, ByRecency:
			if named {
				return any(item).(Named).Name(), nil
			}
		case ByAssociatedArtistName:
			if byArtist {
				return any(item).(ArtistNamed).ArtistName(), nil
			}
		}
		return "", unsupported(kind, mode)
	}
}

func unsupported(kind string, mode SortMode) error {
	return fmt.Errorf("%w: %s has no %s key", ErrUnsupportedSortMode, kind, mode)
}
