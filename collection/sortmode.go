package collection

import (
	"fmt"
	"strings"
)

// SortMode selects which field of an item yields its sort key.
type SortMode int

const (
	ByPrimaryName SortMode = iota
	ByAssociatedArtistName
	// ByRecency has no timestamp source yet and sorts like ByPrimaryName.
	ByRecency
)

func (m SortMode) String() string {
	switch m {
	case ByPrimaryName:
		return "name"
	case ByAssociatedArtistName:
		return "artist"
	case ByRecency:
		return "recent"
	}
	return fmt.Sprintf("SortMode(%d)", int(m))
}

// ParseSortMode accepts the names produced by SortMode.String, case-insensitively.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "alpha", "":
		return ByPrimaryName, nil
	case "artist":
		return ByAssociatedArtistName, nil
	case "recent", "recency", "modified":
		return ByRecency, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSortMode, s)
}
