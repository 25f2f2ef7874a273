package media

import (
	"fmt"

	"smj-merge/collection"
)

// Column layout of artist rows.
const (
	ArtistColName = iota
	ArtistColumns
)

// Column layout of album rows.
const (
	AlbumColName = iota
	AlbumColArtist
	AlbumColumns
)

// Column layout of track rows.
const (
	TrackColArtist = iota
	TrackColAlbum
	TrackColTitle
	TrackColNumber
	TrackColDisc
	TrackColGenre
	TrackColPath
	TrackColumns
)

// ArtistStrategy reads artist rows. Artists have no associated artist, so
// ByAssociatedArtistName is unsupported.
func ArtistStrategy(r *Registry) collection.Strategy[Artist] {
	return collection.Strategy[Artist]{
		Kind: KindArtist.String(),
		Construct: func(rows *collection.RowAccessor, raw int) (*Artist, error) {
			name, err := rows.String(raw, ArtistColName)
			if err != nil {
				return nil, fmt.Errorf("artist row %d: %w", raw, err)
			}
			return r.Artist(name), nil
		},
		Columns: map[collection.SortMode]int{
			collection.ByPrimaryName: ArtistColName,
			collection.ByRecency:     ArtistColName,
		},
	}
}

func AlbumStrategy(r *Registry) collection.Strategy[Album] {
	return collection.Strategy[Album]{
		Kind: KindAlbum.String(),
		Construct: func(rows *collection.RowAccessor, raw int) (*Album, error) {
			name, err := rows.String(raw, AlbumColName)
			if err != nil {
				return nil, fmt.Errorf("album row %d: %w", raw, err)
			}
			artist, err := rows.String(raw, AlbumColArtist)
			if err != nil {
				return nil, fmt.Errorf("album row %d: %w", raw, err)
			}
			return r.Album(name, r.Artist(artist)), nil
		},
		Columns: map[collection.SortMode]int{
			collection.ByPrimaryName:          AlbumColName,
			collection.ByAssociatedArtistName: AlbumColArtist,
			collection.ByRecency:              AlbumColName,
		},
	}
}

func TrackStrategy(r *Registry) collection.Strategy[Track] {
	return collection.Strategy[Track]{
		Kind:      KindTrack.String(),
		Construct: func(rows *collection.RowAccessor, raw int) (*Track, error) { return trackFromRow(r, rows, raw) },
		Columns: map[collection.SortMode]int{
			collection.ByPrimaryName:          TrackColTitle,
			collection.ByAssociatedArtistName: TrackColArtist,
			collection.ByRecency:              TrackColTitle,
		},
	}
}

func trackFromRow(r *Registry, rows *collection.RowAccessor, raw int) (*Track, error) {
	var m Media
	var err error
	wrap := func(err error) error { return fmt.Errorf("track row %d: %w", raw, err) }

	if m.Artist, err = rows.String(raw, TrackColArtist); err != nil {
		return nil, wrap(err)
	}
	if m.Album, err = rows.String(raw, TrackColAlbum); err != nil {
		return nil, wrap(err)
	}
	if m.Title, err = rows.String(raw, TrackColTitle); err != nil {
		return nil, wrap(err)
	}
	if m.TrackNumber, err = rows.Int(raw, TrackColNumber); err != nil {
		return nil, wrap(err)
	}
	if m.DiscNumber, err = rows.Int(raw, TrackColDisc); err != nil {
		return nil, wrap(err)
	}
	if m.Genre, err = rows.String(raw, TrackColGenre); err != nil {
		return nil, wrap(err)
	}
	if m.Path, err = rows.String(raw, TrackColPath); err != nil {
		return nil, wrap(err)
	}
	return r.FromMedia(m), nil
}
