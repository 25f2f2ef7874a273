package media

import (
	"slices"
	"strings"

	"smj-merge/collection"
)

// Tracks registers every record and returns the distinct tracks in first-seen order.
func Tracks(r *Registry, ms []Media) []*Track {
	seen := make(map[*Track]struct{}, len(ms))
	var out []*Track
	for _, m := range ms {
		t := r.FromMedia(m)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Albums returns the distinct albums of ms in first-seen order.
func Albums(r *Registry, ms []Media) []*Album {
	seen := make(map[*Album]struct{})
	var out []*Album
	for _, t := range Tracks(r, ms) {
		if _, ok := seen[t.album]; ok {
			continue
		}
		seen[t.album] = struct{}{}
		out = append(out, t.album)
	}
	return out
}

// Artists returns the distinct artists of ms in first-seen order.
func Artists(r *Registry, ms []Media) []*Artist {
	seen := make(map[*Artist]struct{})
	var out []*Artist
	for _, m := range ms {
		a := r.Artist(m.Artist)
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Sorted returns a copy of items in ascending key order under mode, ready to
// be used as an overlay. Equal keys keep their input order.
func Sorted[E any](items []*E, mode collection.SortMode) ([]*E, error) {
	keys := make(map[*E]string, len(items))
	for _, it := range items {
		k, err := collection.KeyOf(it, mode)
		if err != nil {
			return nil, err
		}
		keys[it] = k
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b *E) int {
		return strings.Compare(keys[a], keys[b])
	})
	return out, nil
}
