package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smj-merge/collection"
)

type rowsCursor struct {
	rows   [][]any
	closed bool
}

func (c *rowsCursor) Count() int                         { return len(c.rows) }
func (c *rowsCursor) Field(raw, column int) (any, error) { return c.rows[raw][column], nil }
func (c *rowsCursor) Close() error                       { c.closed = true; return nil }

func TestRegistry_SharesInstances(t *testing.T) {
	r := NewRegistry()

	bowie := r.Artist("David Bowie")
	assert.Same(t, bowie, r.Artist("David Bowie"))
	assert.NotSame(t, bowie, r.Artist("Bowie"))

	low := r.Album("Low", bowie)
	assert.Same(t, low, r.Album("Low", r.Artist("David Bowie")))
	assert.NotSame(t, low, r.Album("Low", r.Artist("Nick Lowe")))

	sound := r.Track("Sound and Vision", low, bowie)
	assert.Same(t, sound, r.FromMedia(Media{Title: "Sound and Vision", Album: "Low", Artist: "David Bowie", TrackNumber: 3}))
	assert.Equal(t, 3, sound.Number)

	artists, albums, tracks := r.Len()
	assert.Equal(t, 3, artists)
	assert.Equal(t, 2, albums)
	assert.Equal(t, 1, tracks)
}

func TestRegistry_PrefixWalks(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"The Cure", "Talk Talk", "The Clash", "Blur"} {
		r.Artist(name)
	}
	cure := r.Artist("The Cure")
	r.Album("Pornography", cure)
	r.Album("Disintegration", cure)
	r.Album("London Calling", r.Artist("The Clash"))

	var names []string
	for _, a := range r.ArtistsWithPrefix("The ") {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"The Clash", "The Cure"}, names)

	names = names[:0]
	for _, a := range r.AlbumsBy(cure) {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"Disintegration", "Pornography"}, names)
}

func TestTrackStrategy_MaterializesRows(t *testing.T) {
	r := NewRegistry()
	c := &rowsCursor{rows: [][]any{
		{"Kraftwerk", "Computer World", "Numbers", int64(4), int64(1), "Electronic", "/m/numbers.flac"},
	}}

	v := collection.NewRowView(c, TrackStrategy(r))
	tr, err := v.Get(0)
	require.NoError(t, err)

	assert.Equal(t, "Numbers", tr.Name())
	assert.Equal(t, "Kraftwerk", tr.ArtistName())
	assert.Equal(t, "Computer World", tr.Album().Name())
	assert.Equal(t, 4, tr.Number)
	assert.Equal(t, 1, tr.Disc)
	assert.Equal(t, "/m/numbers.flac", tr.Path)
	assert.Same(t, r.Artist("Kraftwerk"), tr.Artist())

	require.NoError(t, v.Release())
	assert.True(t, c.closed)
}

func TestAlbumView_MergesOverlayByArtist(t *testing.T) {
	r := NewRegistry()
	c := &rowsCursor{rows: [][]any{
		{"Homogenic", "Björk"},
		{"Kid A", "Radiohead"},
	}}
	v := collection.NewRowView(c, AlbumStrategy(r))
	defer v.Release()

	overlay, err := Sorted(Albums(r, []Media{
		{Title: "Idioteque", Album: "Kid A", Artist: "Radiohead"},
		{Title: "Teardrop", Album: "Mezzanine", Artist: "Massive Attack"},
	}), collection.ByAssociatedArtistName)
	require.NoError(t, err)
	require.Len(t, overlay, 2)

	require.NoError(t, v.SetOverlay(overlay, collection.ByAssociatedArtistName))
	require.Equal(t, 3, v.Size())

	var got []string
	for i := 0; i < v.Size(); i++ {
		a, err := v.Get(i)
		require.NoError(t, err)
		got = append(got, a.Name())
	}
	assert.Equal(t, []string{"Homogenic", "Mezzanine", "Kid A"}, got)
}

func TestArtistView_RejectsArtistSort(t *testing.T) {
	r := NewRegistry()
	c := &rowsCursor{rows: [][]any{{"Autechre"}, {"Boards of Canada"}}}
	v := collection.NewRowView(c, ArtistStrategy(r))
	defer v.Release()

	err := v.SetOverlay(Artists(r, []Media{{Artist: "Aphex Twin"}}), collection.ByAssociatedArtistName)
	assert.ErrorIs(t, err, collection.ErrUnsupportedSortMode)
	assert.Equal(t, 2, v.Size())

	_, err = Sorted(Artists(r, []Media{{Artist: "Aphex Twin"}}), collection.ByAssociatedArtistName)
	assert.ErrorIs(t, err, collection.ErrUnsupportedSortMode)
}

func TestTracks_DeduplicatesAndSorts(t *testing.T) {
	r := NewRegistry()
	ms := []Media{
		{Title: "Windowlicker", Album: "Windowlicker", Artist: "Aphex Twin"},
		{Title: "Avril 14th", Album: "Drukqs", Artist: "Aphex Twin"},
		{Title: "Windowlicker", Album: "Windowlicker", Artist: "Aphex Twin"},
	}
	tracks := Tracks(r, ms)
	require.Len(t, tracks, 2)

	sorted, err := Sorted(tracks, collection.ByPrimaryName)
	require.NoError(t, err)
	assert.Equal(t, "Avril 14th", sorted[0].Name())
	assert.Equal(t, "Windowlicker", sorted[1].Name())
	assert.Equal(t, "Windowlicker", tracks[0].Name(), "input left untouched")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Albums")
	require.NoError(t, err)
	assert.Equal(t, KindAlbum, k)
	assert.Equal(t, "albums", k.String())

	_, err = ParseKind("genres")
	assert.Error(t, err)
}
