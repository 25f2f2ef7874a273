package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smj-merge/media"
)

// fakeTags overrides only the accessors fromMetadata reads.
type fakeTags struct {
	tag.Metadata
	title, artist, albumArtist, album, genre string
	track, disc                              int
}

func (f fakeTags) Title() string       { return f.title }
func (f fakeTags) Artist() string      { return f.artist }
func (f fakeTags) AlbumArtist() string { return f.albumArtist }
func (f fakeTags) Album() string       { return f.album }
func (f fakeTags) Genre() string       { return f.genre }
func (f fakeTags) Track() (int, int)   { return f.track, 12 }
func (f fakeTags) Disc() (int, int)    { return f.disc, 2 }

// memStore records batches in memory.
type memStore struct {
	mu      sync.Mutex
	batches [][]*media.Media
	fail    error
}

func (s *memStore) Initialize(string) error { return nil }
func (s *memStore) Close() error            { return nil }
func (s *memStore) IndexMediaBatch(batch []*media.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.batches = append(s.batches, append([]*media.Media(nil), batch...))
	return nil
}
func (s *memStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n, nil
}
func (s *memStore) Search(string) ([]media.Media, error) { return nil, nil }
func (s *memStore) RemoveStaleEntries() (int, error)     { return 0, nil }
func (s *memStore) GetAllPaths() ([]string, error)       { return nil, nil }
func (s *memStore) Clear() error                         { return nil }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("not really audio"), 0o644))
	}
}

func fakeParse(path string) (*media.Media, error) {
	return &media.Media{Title: filepath.Base(path), Path: path}, nil
}

func TestIsMediaFile(t *testing.T) {
	assert.True(t, IsMediaFile("/m/a.MP3"))
	assert.True(t, IsMediaFile("b.flac"))
	assert.True(t, IsMediaFile("c.oga"))
	assert.False(t, IsMediaFile("cover.jpg"))
	assert.False(t, IsMediaFile("noext"))
}

func TestFromMetadata(t *testing.T) {
	m := fromMetadata("/m/Low/08 Warszawa.flac", fakeTags{
		artist:      "Bowie",
		albumArtist: "David Bowie",
		album:       "Low",
		track:       8,
		disc:        1,
	})
	assert.Equal(t, "08 Warszawa", m.Title)
	assert.Equal(t, "David Bowie", m.Artist)
	assert.Equal(t, "Low", m.Album)
	assert.Equal(t, "unknown genre", m.Genre)
	assert.Equal(t, 8, m.TrackNumber)
	assert.Equal(t, 1, m.DiscNumber)

	m = fromMetadata("/m/x.mp3", fakeTags{title: "X"})
	assert.Equal(t, "unknown artist", m.Artist)
	assert.Equal(t, "unknown album", m.Album)
}

func TestParseFile_RejectsNonAudio(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "bogus.mp3")

	_, err := ParseFile(filepath.Join(dir, "bogus.mp3"))
	assert.Error(t, err)
}

func TestIndexer_Index(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a/1.mp3", "a/2.flac", "b/3.ogg", "b/cover.jpg", "notes.txt")

	s := &memStore{}
	ix := &Indexer{Store: s, Workers: 2, BatchSize: 2, Parse: fakeParse, Log: zerolog.Nop()}

	n, err := ix.Index(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, _ := s.Count()
	assert.Equal(t, 3, count)
	for _, b := range s.batches {
		assert.LessOrEqual(t, len(b), 2)
	}
}

func TestIndexer_SkipsUnparsable(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "bogus.mp3", "also-bogus.m4a")

	s := &memStore{}
	n, err := (&Indexer{Store: s, Log: zerolog.Nop()}).Index(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.batches)
}

func TestIndexer_FreshenSkipsOlderFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "old.mp3", "new.mp3")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.mp3"), old, old))

	s := &memStore{}
	ix := &Indexer{Store: s, Since: time.Now().Add(-time.Hour), Parse: fakeParse, Log: zerolog.Nop()}
	n, err := ix.Index(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, "new.mp3", s.batches[0][0].Title)
}

func TestIndexer_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "1.mp3", "2.mp3", "3.mp3")

	boom := errors.New("disk full")
	ix := &Indexer{Store: &memStore{fail: boom}, BatchSize: 1, Parse: fakeParse, Log: zerolog.Nop()}
	_, err := ix.Index(context.Background(), dir)
	assert.ErrorIs(t, err, boom)
}

func TestIndexer_MissingRoot(t *testing.T) {
	_, err := (&Indexer{Store: &memStore{}}).Index(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
