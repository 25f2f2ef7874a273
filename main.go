package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"smj-merge/collection"
	"smj-merge/config"
	"smj-merge/media"
	"smj-merge/scan"
	"smj-merge/store"
)

var (
	configPath  string
	query       string
	freshen     bool
	prune       bool
	forceRescan bool
	showSyntax  bool
	debug       bool
)

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(config.DefaultAppName, pflag.ExitOnError)

	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringP("location", "l", "", "the location to search for media files")
	flags.StringVarP(&query, "query", "q", "", "input an SMJ7-style query")
	flags.String("database", "", "the location to store the media database")
	flags.String("overlay-index", "", "a Bleve index whose tracks are merged over the library listing")
	flags.Bool("use-document-backend", false, "use the Bleve document backend as the primary store")
	flags.BoolVar(&freshen, "freshen", false, "search for new files and scan them")
	flags.BoolVar(&prune, "prune", false, "delete entries from the database if the file no longer exists")
	flags.BoolVar(&forceRescan, "force-rescan", false, "nuke the database and start from scratch")
	flags.Int("workers", 0, "number of concurrent tag readers (0 = one per CPU)")
	flags.Bool("force-serial", false, "disable parallelized media parsing")
	flags.String("kind", "tracks", "what to list: artists, albums or tracks")
	flags.String("sort", "name", "sort mode: name, artist or recent")
	flags.Bool("json", false, "output results in JSON")
	flags.Bool("show-paths", false, "include path information in output")
	flags.IntP("indent", "i", 2, "with --json, # of spaces to indent by")
	flags.String("log-level", "info", "log level")
	flags.BoolVar(&showSyntax, "syntax", false, "show SMJ7-style syntax guide")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	return flags
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func main() {
	flags := newFlagSet()
	flags.Parse(os.Args[1:])

	if showSyntax {
		fmt.Println(syntaxGuide)
		return
	}

	cfg, err := config.LoadConfig(configPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := newLogger(cfg.Log.Level)
	ctx := context.Background()

	st, dbPath, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open library")
	}
	defer st.Close()

	if err := maintain(ctx, cfg, st, dbPath, log); err != nil {
		log.Fatal().Err(err).Msg("library maintenance failed")
	}

	if query != "" {
		results, err := st.Search(query)
		if err != nil {
			log.Fatal().Err(err).Str("query", query).Msg("search failed")
		}
		if cfg.Output.JSON {
			fmt.Println(jsonizer(results, cfg.Output))
			return
		}
		printResults(results)
		return
	}

	kind, err := media.ParseKind(cfg.View.Kind)
	if err != nil {
		log.Fatal().Err(err).Msg("bad --kind")
	}
	mode, err := collection.ParseSortMode(cfg.View.Sort)
	if err != nil {
		log.Fatal().Err(err).Msg("bad --sort")
	}

	entries, err := list(ctx, st, cfg.Library.OverlayIndex, kind, mode, log)
	if err != nil {
		log.Fatal().Err(err).Stringer("kind", kind).Stringer("sort", mode).Msg("listing failed")
	}
	printEntries(entries, cfg.Output)
}

// openStore opens the configured primary backend. On the first run of the
// document backend next to an existing SQLite library, the library is imported.
func openStore(cfg *config.Config, log zerolog.Logger) (store.Datastore, string, error) {
	dbPath := cfg.Library.Database
	if !cfg.Library.DocumentBackend {
		if forceRescan {
			os.Remove(dbPath)
		}
		s := store.NewSQLiteStore(log)
		return s, dbPath, s.Initialize(dbPath)
	}

	blevePath := store.BlevePath(dbPath)
	if forceRescan {
		os.RemoveAll(blevePath)
	}
	importFrom := ""
	if fileExists(dbPath) && !fileExists(blevePath) {
		importFrom = dbPath
	}

	b := store.NewBleveStore(log)
	if err := b.Initialize(blevePath); err != nil {
		return nil, "", err
	}
	if importFrom != "" {
		log.Info().Str("from", importFrom).Msg("importing SQLite library into document backend")
		if err := importLibrary(importFrom, b, log); err != nil {
			log.Error().Err(err).Msg("import failed")
		}
	}
	return b, blevePath, nil
}

func importLibrary(sqlitePath string, dst store.Datastore, log zerolog.Logger) error {
	src := store.NewSQLiteStore(log)
	if err := src.Initialize(sqlitePath); err != nil {
		return err
	}
	defer src.Close()

	all, err := src.Search("")
	if err != nil {
		return err
	}
	for i := 0; i < len(all); i += scan.DefaultBatchSize {
		end := min(i+scan.DefaultBatchSize, len(all))
		batch := make([]*media.Media, 0, end-i)
		for j := i; j < end; j++ {
			batch = append(batch, &all[j])
		}
		if err := dst.IndexMediaBatch(batch); err != nil {
			return err
		}
	}
	return nil
}

// maintain runs the indexing, freshen and prune steps requested on the command line.
func maintain(ctx context.Context, cfg *config.Config, st store.Datastore, dbPath string, log zerolog.Logger) error {
	if _, err := os.Stat(cfg.Library.Location); os.IsNotExist(err) {
		return fmt.Errorf("cannot scan a nonexistent path: %q", cfg.Library.Location)
	}

	workers := cfg.Index.Workers
	if cfg.Index.Serial {
		workers = 1
	}
	ix := &scan.Indexer{Store: st, Workers: workers, Log: log}

	count, err := st.Count()
	if err != nil {
		return err
	}

	switch {
	case forceRescan || count == 0:
		if _, err := ix.Index(ctx, cfg.Library.Location); err != nil {
			return err
		}
	case freshen:
		// Only files modified after the database itself are rescanned.
		if info, err := os.Stat(dbPath); err == nil {
			ix.Since = info.ModTime()
		}
		if _, err := ix.Index(ctx, cfg.Library.Location); err != nil {
			return err
		}
	}

	if prune {
		removed, err := st.RemoveStaleEntries()
		if err != nil {
			return err
		}
		log.Info().Int("removed", removed).Msg("pruned stale files")
	}
	return nil
}

// entry is one printed line of a listing.
type entry struct {
	Name    string `json:"name"`
	Artist  string `json:"artist,omitempty"`
	Album   string `json:"album,omitempty"`
	Path    string `json:"path,omitempty"`
	Overlay bool   `json:"overlay,omitempty"`
}

func list(ctx context.Context, st store.Datastore, overlayIndex string, kind media.Kind, mode collection.SortMode, log zerolog.Logger) ([]entry, error) {
	reg := media.NewRegistry()

	var extra []media.Media
	if overlayIndex != "" {
		o := store.NewBleveStore(log)
		if err := o.Initialize(overlayIndex); err != nil {
			return nil, err
		}
		defer o.Close()
		var err error
		if extra, err = o.Search(""); err != nil {
			return nil, err
		}
	}

	defer func() {
		artists, albums, tracks := reg.Len()
		log.Debug().Int("artists", artists).Int("albums", albums).Int("tracks", tracks).Msg("registry")
	}()

	switch kind {
	case media.KindArtist:
		artists := func(ms []media.Media) []*media.Artist { return media.Artists(reg, ms) }
		return listKind(ctx, st, kind, mode, media.ArtistStrategy(reg), artists, extra, func(a *media.Artist) entry {
			return entry{Name: a.Name()}
		}, log)
	case media.KindAlbum:
		albums := func(ms []media.Media) []*media.Album { return media.Albums(reg, ms) }
		return listKind(ctx, st, kind, mode, media.AlbumStrategy(reg), albums, extra, func(a *media.Album) entry {
			return entry{Name: a.Name(), Artist: a.ArtistName()}
		}, log)
	default:
		tracks := func(ms []media.Media) []*media.Track { return media.Tracks(reg, ms) }
		return listKind(ctx, st, kind, mode, media.TrackStrategy(reg), tracks, extra, func(t *media.Track) entry {
			return entry{Name: t.Name(), Artist: t.ArtistName(), Album: t.Album().Name(), Path: t.Path}
		}, log)
	}
}

func listKind[E any](
	ctx context.Context,
	st store.Datastore,
	kind media.Kind,
	mode collection.SortMode,
	strategy collection.Strategy[E],
	fromMedia func([]media.Media) []*E,
	extra []media.Media,
	describe func(*E) entry,
	log zerolog.Logger,
) ([]entry, error) {
	view, err := openView(ctx, st, kind, mode, strategy, fromMedia, log)
	if err != nil {
		return nil, err
	}
	defer view.Release()

	if len(extra) > 0 {
		overlay, err := media.Sorted(fromMedia(extra), mode)
		if err != nil {
			return nil, err
		}
		if err := view.SetOverlay(overlay, mode); err != nil {
			return nil, err
		}
	}

	positions := view.Positions()
	out := make([]entry, 0, view.Size())
	for i := 0; i < view.Size(); i++ {
		item, err := view.Get(i)
		if err != nil {
			return nil, err
		}
		e := describe(item)
		e.Overlay = positions != nil && positions[i].Origin == collection.Overlay
		out = append(out, e)
	}
	log.Debug().Int("entries", len(out)).Int("materialized", view.Materialized()).Msg("listing done")
	return out, nil
}

// openView reads straight from rows when the store can hand out a cursor and
// falls back to a materialized list otherwise.
func openView[E any](
	ctx context.Context,
	st store.Datastore,
	kind media.Kind,
	mode collection.SortMode,
	strategy collection.Strategy[E],
	fromMedia func([]media.Media) []*E,
	log zerolog.Logger,
) (*collection.View[E], error) {
	if rs, ok := st.(store.RowStore); ok {
		cur, err := rs.Rows(ctx, kind, mode)
		if err != nil {
			return nil, err
		}
		return collection.NewRowView(cur, strategy, collection.WithLogger(log)), nil
	}

	all, err := st.Search("")
	if err != nil {
		return nil, err
	}
	items, err := media.Sorted(fromMedia(all), mode)
	if err != nil {
		return nil, err
	}
	return collection.NewListView(items, collection.WithLogger(log)), nil
}

func printEntries(entries []entry, out config.OutputConfig) {
	if !out.ShowPaths {
		for i := range entries {
			entries[i].Path = ""
		}
	}
	if out.JSON {
		fmt.Println(marshal(entries, out.Indent))
		return
	}
	if len(entries) == 0 {
		fmt.Println("No results found.")
		return
	}

	width := int(math.Log10(float64(len(entries)))) + 1
	for i, e := range entries {
		marker := " "
		if e.Overlay {
			marker = "+"
		}
		line := e.Name
		if e.Album != "" {
			line = e.Album + " / " + line
		}
		if e.Artist != "" {
			line = e.Artist + " / " + line
		}
		if e.Path != "" {
			line += "  (" + e.Path + ")"
		}
		fmt.Printf("[ %*d ]%s %s\n", width, i+1, marker, line)
	}
}

func printResults(results []media.Media) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	var lastArtist, lastAlbum string
	width := int(math.Log10(float64(len(results)))) + 1
	for i, r := range results {
		if lastArtist != r.Artist {
			fmt.Printf("\n %s\n%s\n", r.Artist, strings.Repeat("=", len(r.Artist)))
			lastAlbum = ""
		}
		if lastAlbum != r.Album {
			fmt.Printf("\n  %s\n   %s\n", r.Album, strings.Repeat("-", len(r.Album)))
		}
		fmt.Printf("    [ %*d ] %s\n", width, i+1, r.Title)
		lastArtist = r.Artist
		lastAlbum = r.Album
	}
}

// jsonizer groups search results as artist -> album -> tracks.
func jsonizer(results []media.Media, out config.OutputConfig) string {
	type AlbumMap map[string][]interface{}
	type ArtistMap map[string]AlbumMap

	hierarchy := make(ArtistMap)
	for _, m := range results {
		if _, ok := hierarchy[m.Artist]; !ok {
			hierarchy[m.Artist] = make(AlbumMap)
		}
		var track interface{} = m.Title
		if out.ShowPaths {
			track = map[string]string{"title": m.Title, "path": m.Path}
		}
		hierarchy[m.Artist][m.Album] = append(hierarchy[m.Artist][m.Album], track)
	}
	return marshal(hierarchy, out.Indent)
}

func marshal(v any, indent int) string {
	var b []byte
	if indent > 0 {
		b, _ = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		b, _ = json.Marshal(v)
	}
	return string(b)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

const syntaxGuide = `
# SMJ7-Style Syntax

SMJ7 supports a syntax for chaining queries together using single-character notation.
You can combine multiple parameters; like-type parameters will be logically ORed and
unlike-type parameters will be logically ANDed together.

!<some string>                      - Search for genres matching the string
@<some string>                      - Search for artists matching the string
#<some string>                      - Search for albums matching the string
$<some string>                      - Search for tracks matching the string
<some string>                       - Search for artists, albums, or tracks matching the string

## Examples

@mingus, @coltrane, @brubeck        - Assorted jazz tracks by these 3 artists
@rolling stones, #greatest          - "Greatest Hits" by "The Rolling Stones"
@decemberists, #live, $infanta      - The live version of "Infanta" by "The Decemberists"

# Listing

Without --query the library is listed through a collection view:

--kind artists|albums|tracks        - What to list
--sort name|artist|recent           - Sort mode (artists cannot be sorted by artist)
--overlay-index PATH                - Merge the tracks of a Bleve index into the listing;
                                      merged-in entries are marked with "+"

# Bleve Backend Features

With --use-document-backend, queries without SMJ7 prefixes use Bleve's query syntax:

title:love~2                       - Fuzzy match title for "love" with edit distance 2
+artist:queen -title:live          - Must be Queen, must not be "live"
`
