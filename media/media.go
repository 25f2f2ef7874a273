// Package media holds the music library's domain items and the glue that
// turns library rows into them.
package media

import (
	"fmt"
	"strings"
)

// Media represents a single media file and its metadata.
type Media struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"tracknumber"`
	DiscNumber  int    `json:"discnumber"`
	Genre       string `json:"genre"`
	Path        string `json:"path"`
}

// Kind is one of the item kinds a collection view can list.
type Kind int

const (
	KindTrack Kind = iota
	KindAlbum
	KindArtist
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "tracks"
	case KindAlbum:
		return "albums"
	case KindArtist:
		return "artists"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "track", "tracks", "":
		return KindTrack, nil
	case "album", "albums":
		return KindAlbum, nil
	case "artist", "artists":
		return KindArtist, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

type Artist struct {
	name string
}

func (a *Artist) Name() string { return a.name }

type Album struct {
	name   string
	artist *Artist
}

func (a *Album) Name() string       { return a.name }
func (a *Album) Artist() *Artist    { return a.artist }
func (a *Album) ArtistName() string { return a.artist.name }

// Track is a single song. Number, Disc, Genre and Path are refreshed every
// time a row for the track is materialized.
type Track struct {
	title  string
	album  *Album
	artist *Artist

	Number int
	Disc   int
	Genre  string
	Path   string
}

func (t *Track) Name() string       { return t.title }
func (t *Track) Album() *Album      { return t.album }
func (t *Track) Artist() *Artist    { return t.artist }
func (t *Track) ArtistName() string { return t.artist.name }
