//go:build cgo

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"smj-merge/collection"
	"smj-merge/media"
)

const mediaColumns = "title, artist, album, tracknumber, discnumber, genre, path"

type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSQLiteStore(log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{log: log.With().Str("backend", "sqlite").Logger()}
}

func (s *SQLiteStore) Initialize(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.db = db

	sqlStmt := `CREATE TABLE IF NOT EXISTS media(
		title TEXT,
		artist TEXT,
		album TEXT,
		tracknumber INTEGER,
		discnumber INTEGER,
		genre TEXT,
		path TEXT UNIQUE
	);`
	if _, err = s.db.Exec(sqlStmt); err != nil {
		return fmt.Errorf("create media table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM media")
	return err
}

func (s *SQLiteStore) IndexMediaBatch(batch []*media.Media) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO media (" + mediaColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range batch {
		if _, err := stmt.Exec(m.Title, m.Artist, m.Album, m.TrackNumber, m.DiscNumber, m.Genre, m.Path); err != nil {
			s.log.Warn().Err(err).Str("path", m.Path).Msg("skipping media entry")
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM media").Scan(&count)
	return count, err
}

func (s *SQLiteStore) GetAllPaths() ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM media")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) RemoveStaleEntries() (int, error) {
	paths, err := s.GetAllPaths()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare("DELETE FROM media WHERE path = ?")
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	removed := 0
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, err := stmt.Exec(path); err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("delete %s: %w", path, err)
			}
			removed++
		}
	}
	return removed, tx.Commit()
}

func (s *SQLiteStore) Search(input string) ([]media.Media, error) {
	q := ParseQuery(input)

	var sqlParts []string
	var args []interface{}

	addOrGroup := func(terms []string, fields ...string) {
		if len(terms) == 0 {
			return
		}
		var subParts []string
		for _, t := range terms {
			var likes []string
			for _, f := range fields {
				likes = append(likes, f+" LIKE ?")
				args = append(args, "%"+t+"%")
			}
			subParts = append(subParts, "("+strings.Join(likes, " OR ")+")")
		}
		sqlParts = append(sqlParts, "("+strings.Join(subParts, " OR ")+")")
	}

	addOrGroup(q.Genres, "genre")
	addOrGroup(q.Artists, "artist")
	addOrGroup(q.Albums, "album")
	addOrGroup(q.Titles, "title")
	addOrGroup(q.Any, "artist", "album", "title")

	query := "SELECT " + mediaColumns + " FROM media"
	if len(sqlParts) > 0 {
		query += " WHERE " + strings.Join(sqlParts, " AND ")
	}
	query += " ORDER BY artist, album, discnumber, tracknumber"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return s.scanRows(rows)
}

func (s *SQLiteStore) scanRows(rows *sql.Rows) ([]media.Media, error) {
	defer rows.Close()
	var results []media.Media
	for rows.Next() {
		var m media.Media
		err := rows.Scan(&m.Title, &m.Artist, &m.Album, &m.TrackNumber, &m.DiscNumber, &m.Genre, &m.Path)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Rows implements RowStore. Ordering uses SQLite's default BINARY collation,
// which agrees with Go's byte-wise string comparison.
func (s *SQLiteStore) Rows(ctx context.Context, kind media.Kind, mode collection.SortMode) (collection.Cursor, error) {
	query, width, err := rowsQuery(kind, mode)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin %s cursor: %w", kind, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM ("+query+")").Scan(&count); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("count %s: %w", kind, err)
	}
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}

	s.log.Debug().Stringer("kind", kind).Stringer("mode", mode).Int("rows", count).Msg("opened cursor")
	return &sqliteCursor{tx: tx, rows: rows, count: count, width: width}, nil
}

// rowsQuery returns the SELECT for kind, laid out as media's row columns.
func rowsQuery(kind media.Kind, mode collection.SortMode) (string, int, error) {
	switch kind {
	case media.KindArtist:
		if mode == collection.ByAssociatedArtistName {
			return "", 0, fmt.Errorf("%w: %s has no %s key", collection.ErrUnsupportedSortMode, kind, mode)
		}
		return "SELECT DISTINCT artist FROM media ORDER BY artist", media.ArtistColumns, nil

	case media.KindAlbum:
		order := "album, artist"
		if mode == collection.ByAssociatedArtistName {
			order = "artist, album"
		}
		return "SELECT album, artist FROM media GROUP BY album, artist ORDER BY " + order, media.AlbumColumns, nil

	case media.KindTrack:
		order := "title, artist, album"
		if mode == collection.ByAssociatedArtistName {
			order = "artist, album, discnumber, tracknumber"
		}
		return "SELECT artist, album, title, tracknumber, discnumber, genre, path FROM media ORDER BY " + order, media.TrackColumns, nil
	}
	return "", 0, fmt.Errorf("unknown kind %s", kind)
}

// sqliteCursor reads forward through an open result set and keeps every row
// it has passed, so earlier positions stay addressable.
type sqliteCursor struct {
	tx     *sql.Tx
	rows   *sql.Rows
	count  int
	width  int
	buf    [][]any
	closed bool
}

func (c *sqliteCursor) Count() int { return c.count }

func (c *sqliteCursor) Field(raw, column int) (any, error) {
	if c.closed {
		return nil, collection.ErrReleased
	}
	if column < 0 || column >= c.width {
		return nil, fmt.Errorf("column %d out of %d", column, c.width)
	}
	for len(c.buf) <= raw {
		if !c.rows.Next() {
			if err := c.rows.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: row %d, result set ended at %d", collection.ErrOutOfRange, raw, len(c.buf))
		}
		vals := make([]any, c.width)
		ptrs := make([]any, c.width)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		c.buf = append(c.buf, vals)
	}
	return c.buf[raw][column], nil
}

func (c *sqliteCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.buf = nil
	rerr := c.rows.Close()
	if err := c.tx.Rollback(); err != nil && rerr == nil {
		rerr = err
	}
	return rerr
}

var _ RowStore = (*SQLiteStore)(nil)
