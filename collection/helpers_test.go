package collection

import (
	"errors"
	"fmt"
)

type song struct {
	title  string
	artist string
}

func (s *song) Name() string       { return s.title }
func (s *song) ArtistName() string { return s.artist }

// label only has a name.
type label struct {
	name string
}

func (l *label) Name() string { return l.name }

type memCursor struct {
	rows   [][]any
	closes int
}

func (c *memCursor) Count() int { return len(c.rows) }

func (c *memCursor) Field(raw, column int) (any, error) {
	row := c.rows[raw]
	if column < 0 || column >= len(row) {
		return nil, fmt.Errorf("no column %d", column)
	}
	return row[column], nil
}

func (c *memCursor) Close() error {
	c.closes++
	return nil
}

// songRows builds a cursor with (title, artist) rows and a strategy whose
// factory hands out registry-shared pointers and counts constructions.
type songRows struct {
	cursor   *memCursor
	registry map[[2]string]*song
	builds   map[int]int
	fail     map[int]error
}

func newSongRows(pairs ...[2]string) *songRows {
	c := &memCursor{}
	for _, p := range pairs {
		c.rows = append(c.rows, []any{p[0], []byte(p[1])})
	}
	return &songRows{
		cursor:   c,
		registry: make(map[[2]string]*song),
		builds:   make(map[int]int),
		fail:     make(map[int]error),
	}
}

func (r *songRows) get(title, artist string) *song {
	k := [2]string{title, artist}
	if s, ok := r.registry[k]; ok {
		return s
	}
	s := &song{title: title, artist: artist}
	r.registry[k] = s
	return s
}

func (r *songRows) strategy() Strategy[song] {
	return Strategy[song]{
		Kind: "song",
		Construct: func(rows *RowAccessor, raw int) (*song, error) {
			r.builds[raw]++
			if err := r.fail[raw]; err != nil {
				return nil, err
			}
			title, err := rows.String(raw, 0)
			if err != nil {
				return nil, err
			}
			artist, err := rows.String(raw, 1)
			if err != nil {
				return nil, err
			}
			return r.get(title, artist), nil
		},
		Columns: map[SortMode]int{
			ByPrimaryName:          0,
			ByAssociatedArtistName: 1,
			ByRecency:              0,
		},
	}
}

var errBrokenRow = errors.New("broken row")
