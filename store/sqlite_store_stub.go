//go:build !cgo

package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"smj-merge/collection"
	"smj-merge/media"
)

var errNoCgo = errors.New("SQLite backend is not available in non-CGO builds. Please use --use-document-backend or rebuild with CGO_ENABLED=1")

type SQLiteStore struct{}

func NewSQLiteStore(zerolog.Logger) *SQLiteStore { return &SQLiteStore{} }

func (s *SQLiteStore) Initialize(path string) error { return errNoCgo }

func (s *SQLiteStore) Close() error { return nil }

func (s *SQLiteStore) Clear() error { return nil }

func (s *SQLiteStore) IndexMediaBatch(batch []*media.Media) error { return nil }

func (s *SQLiteStore) Count() (int, error) { return 0, nil }

func (s *SQLiteStore) GetAllPaths() ([]string, error) { return nil, nil }

func (s *SQLiteStore) RemoveStaleEntries() (int, error) { return 0, nil }

func (s *SQLiteStore) Search(input string) ([]media.Media, error) { return nil, nil }

func (s *SQLiteStore) Rows(context.Context, media.Kind, collection.SortMode) (collection.Cursor, error) {
	return nil, errNoCgo
}

var _ RowStore = (*SQLiteStore)(nil)
