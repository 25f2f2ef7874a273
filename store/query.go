package store

import "strings"

// Query is a parsed SMJ7-style query. Like-typed terms are ORed, unlike
// types are ANDed.
type Query struct {
	Genres  []string // !term
	Artists []string // @term
	Albums  []string // #term
	Titles  []string // $term
	Any     []string // bare term: artist, album or title
}

// ParseQuery splits input on commas and sorts each term by its prefix.
func ParseQuery(input string) Query {
	var q Query
	for _, word := range strings.Split(input, ",") {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		switch word[0] {
		case '!':
			q.Genres = append(q.Genres, word[1:])
		case '@':
			q.Artists = append(q.Artists, word[1:])
		case '#':
			q.Albums = append(q.Albums, word[1:])
		case '$':
			q.Titles = append(q.Titles, word[1:])
		default:
			q.Any = append(q.Any, word)
		}
	}
	return q
}

func (q Query) Empty() bool {
	return len(q.Genres)+len(q.Artists)+len(q.Albums)+len(q.Titles)+len(q.Any) == 0
}

// isSMJ7 reports whether input uses SMJ7 prefixes or term lists rather than
// a backend's native query syntax.
func isSMJ7(input string) bool {
	return strings.ContainsAny(input, "!@#$") || strings.Contains(input, ",")
}
