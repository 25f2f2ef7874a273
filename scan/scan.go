// Package scan walks a music directory, reads audio tags and writes the
// results to a Datastore in batches.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"smj-merge/media"
	"smj-merge/store"
)

const DefaultBatchSize = 500

var mediaExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
}

// IsMediaFile reports whether path has an extension the indexer reads.
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// ParseFile reads the tags of one audio file.
func ParseFile(path string) (*media.Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}
	return fromMetadata(path, m), nil
}

// fromMetadata fills in placeholders for missing tags. The album artist wins
// over the track artist so compilations group under one name.
func fromMetadata(path string, m tag.Metadata) *media.Media {
	track, _ := m.Track()
	disc, _ := m.Disc()

	artist := m.Artist()
	if albumArtist := m.AlbumArtist(); albumArtist != "" {
		artist = albumArtist
	}
	if artist == "" {
		artist = "unknown artist"
	}

	title := m.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	album := m.Album()
	if album == "" {
		album = "unknown album"
	}

	genre := m.Genre()
	if genre == "" {
		genre = "unknown genre"
	}

	return &media.Media{
		Title:       title,
		Artist:      artist,
		Album:       album,
		TrackNumber: track,
		DiscNumber:  disc,
		Genre:       genre,
		Path:        path,
	}
}

// Indexer feeds a Datastore from a directory tree.
type Indexer struct {
	Store store.Datastore

	// Workers is the number of concurrent tag readers; zero means one per CPU.
	Workers int

	// Since, when set, skips files not modified after it (freshen mode).
	Since time.Time

	BatchSize int

	// Parse reads one file. Defaults to ParseFile.
	Parse func(path string) (*media.Media, error)

	Log zerolog.Logger
}

// Index walks root and returns the number of entries written.
func (ix *Indexer) Index(ctx context.Context, root string) (int, error) {
	if _, err := os.Stat(root); err != nil {
		return 0, fmt.Errorf("cannot scan %q: %w", root, err)
	}

	workers := ix.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := ix.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	parse := ix.Parse
	if parse == nil {
		parse = ParseFile
	}

	start := time.Now()
	mediaCh := make(chan *media.Media, 100)

	var (
		wg        sync.WaitGroup
		processed int
		writeErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		batch := make([]*media.Media, 0, batchSize)
		write := func() {
			if len(batch) == 0 || writeErr != nil {
				batch = batch[:0]
				return
			}
			if err := ix.Store.IndexMediaBatch(batch); err != nil {
				writeErr = err
			} else {
				processed += len(batch)
			}
			batch = batch[:0]
		}
		// Keep draining after a failed write so workers never block.
		for m := range mediaCh {
			batch = append(batch, m)
			if len(batch) >= batchSize {
				write()
			}
		}
		write()
	}()

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.Log.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsMediaFile(path) {
			return nil
		}
		if !ix.Since.IsZero() {
			info, err := d.Info()
			if err != nil || !info.ModTime().After(ix.Since) {
				return nil
			}
		}

		p.Go(func(ctx context.Context) error {
			m, err := parse(path)
			if err != nil {
				ix.Log.Debug().Err(err).Str("path", path).Msg("skipping unparsable file")
				return nil
			}
			select {
			case mediaCh <- m:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		return nil
	})
	poolErr := p.Wait()
	close(mediaCh)
	wg.Wait()

	switch {
	case walkErr != nil:
		return processed, walkErr
	case poolErr != nil:
		return processed, poolErr
	case writeErr != nil:
		return processed, fmt.Errorf("write batch: %w", writeErr)
	}

	ix.Log.Info().
		Int("files", processed).
		Int("workers", workers).
		Bool("freshen", !ix.Since.IsZero()).
		Dur("elapsed", time.Since(start)).
		Msg("indexed library")
	return processed, nil
}
