// Package store holds the library backends: a SQLite table that can serve
// positional row cursors to collection views, and a Bleve document index.
package store

import (
	"context"

	"smj-merge/collection"
	"smj-merge/media"
)

// Datastore is the interface that any backend must implement.
type Datastore interface {
	// Initialize prepares the datastore (e.g., create tables, open index).
	Initialize(path string) error

	// Close cleans up resources.
	Close() error

	// IndexMediaBatch adds or updates a batch of media entries.
	IndexMediaBatch(batch []*media.Media) error

	// Count returns the total number of media entries.
	Count() (int, error)

	// Search returns media entries matching an SMJ7-style query.
	// An empty query returns all entries.
	Search(query string) ([]media.Media, error)

	// RemoveStaleEntries removes entries whose file no longer exists on disk
	// and returns how many were removed.
	RemoveStaleEntries() (int, error)

	// GetAllPaths returns a list of all file paths currently in the store.
	GetAllPaths() ([]string, error)

	// Clear removes all data from the store.
	Clear() error
}

// RowStore is a Datastore that can list artists, albums or tracks as a
// positional row cursor, ordered for the given sort mode. The cursor holds
// an open read until it is closed; ctx must outlive it.
type RowStore interface {
	Datastore
	Rows(ctx context.Context, kind media.Kind, mode collection.SortMode) (collection.Cursor, error)
}
