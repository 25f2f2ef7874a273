package media

import (
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

const keySep = "\x1f"

// Registry hands out one shared instance per artist, album and track so that
// the same entity read from two sources compares equal by pointer.
type Registry struct {
	mu      sync.Mutex
	artists *radix.Tree
	albums  *radix.Tree
	tracks  *radix.Tree
}

func NewRegistry() *Registry {
	return &Registry{
		artists: radix.New(),
		albums:  radix.New(),
		tracks:  radix.New(),
	}
}

// Artist returns the artist called name, creating it if needed.
func (r *Registry) Artist(name string) *Artist {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artist(name)
}

func (r *Registry) artist(name string) *Artist {
	if v, ok := r.artists.Get(name); ok {
		return v.(*Artist)
	}
	a := &Artist{name: name}
	r.artists.Insert(name, a)
	return a
}

// Album returns the album called name by artist, creating it if needed.
func (r *Registry) Album(name string, artist *Artist) *Album {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.album(name, artist)
}

func (r *Registry) album(name string, artist *Artist) *Album {
	key := artist.name + keySep + name
	if v, ok := r.albums.Get(key); ok {
		return v.(*Album)
	}
	a := &Album{name: name, artist: artist}
	r.albums.Insert(key, a)
	return a
}

// Track returns the track titled title on album by artist, creating it if needed.
func (r *Registry) Track(title string, album *Album, artist *Artist) *Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track(title, album, artist)
}

func (r *Registry) track(title string, album *Album, artist *Artist) *Track {
	key := strings.Join([]string{artist.name, album.name, title}, keySep)
	if v, ok := r.tracks.Get(key); ok {
		return v.(*Track)
	}
	t := &Track{title: title, album: album, artist: artist}
	r.tracks.Insert(key, t)
	return t
}

// FromMedia registers the track described by m and refreshes its file details.
func (r *Registry) FromMedia(m Media) *Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	artist := r.artist(m.Artist)
	t := r.track(m.Title, r.album(m.Album, artist), artist)
	t.Number, t.Disc, t.Genre, t.Path = m.TrackNumber, m.DiscNumber, m.Genre, m.Path
	return t
}

// ArtistsWithPrefix lists registered artists whose name starts with prefix,
// in byte order.
func (r *Registry) ArtistsWithPrefix(prefix string) []*Artist {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Artist
	r.artists.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		out = append(out, v.(*Artist))
		return false
	})
	return out
}

// AlbumsBy lists the registered albums of artist in byte order of their names.
func (r *Registry) AlbumsBy(artist *Artist) []*Album {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Album
	r.albums.WalkPrefix(artist.name+keySep, func(_ string, v interface{}) bool {
		out = append(out, v.(*Album))
		return false
	})
	return out
}

// Len reports how many artists, albums and tracks are registered.
func (r *Registry) Len() (artists, albums, tracks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artists.Len(), r.albums.Len(), r.tracks.Len()
}
