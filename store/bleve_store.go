package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog"

	"smj-merge/media"
)

// DefaultMaxResults bounds a single Bleve search.
const DefaultMaxResults = 10000

// BleveStore is the document backend. Besides standing alone it serves as an
// overlay source: its search results are merged over the SQLite library.
type BleveStore struct {
	index      bleve.Index
	log        zerolog.Logger
	MaxResults int
}

func NewBleveStore(log zerolog.Logger) *BleveStore {
	return &BleveStore{
		log:        log.With().Str("backend", "bleve").Logger(),
		MaxResults: DefaultMaxResults,
	}
}

// BlevePath maps a SQLite database path to its sibling Bleve index directory.
func BlevePath(path string) string {
	if filepath.Ext(path) == ".sqlite" {
		return strings.TrimSuffix(path, ".sqlite") + ".bleve"
	}
	return path
}

func (b *BleveStore) Initialize(path string) error {
	// Bleve indexes are directories.
	path = BlevePath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		index, err := bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return fmt.Errorf("create index %s: %w", path, err)
		}
		b.index = index
		return nil
	}
	index, err := bleve.Open(path)
	if err != nil {
		return fmt.Errorf("open index %s: %w", path, err)
	}
	b.index = index
	return nil
}

func (b *BleveStore) Close() error {
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// Clear deletes every document.
func (b *BleveStore) Clear() error {
	paths, err := b.GetAllPaths()
	if err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, p := range paths {
		batch.Delete(p)
	}
	return b.index.Batch(batch)
}

func (b *BleveStore) IndexMediaBatch(batch []*media.Media) error {
	batchIndex := b.index.NewBatch()
	for _, m := range batch {
		// Path is the document ID so re-indexing a file updates it.
		if err := batchIndex.Index(m.Path, m); err != nil {
			return fmt.Errorf("index %s: %w", m.Path, err)
		}
	}
	return b.index.Batch(batchIndex)
}

func (b *BleveStore) Count() (int, error) {
	c, err := b.index.DocCount()
	return int(c), err
}

func (b *BleveStore) GetAllPaths() ([]string, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = 1000000
	req.Fields = []string{}

	res, err := b.index.Search(req)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		paths = append(paths, hit.ID)
	}
	return paths, nil
}

func (b *BleveStore) RemoveStaleEntries() (int, error) {
	paths, err := b.GetAllPaths()
	if err != nil {
		return 0, err
	}

	removed := 0
	batch := b.index.NewBatch()
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			batch.Delete(path)
			removed++
		}
	}
	return removed, b.index.Batch(batch)
}

// Search accepts SMJ7 syntax, and otherwise Bleve's query string syntax
// (fuzzy terms, field scoping, required and excluded clauses).
func (b *BleveStore) Search(input string) ([]media.Media, error) {
	if input == "" {
		return b.runQuery(bleve.NewMatchAllQuery())
	}
	if isSMJ7(input) {
		return b.runQuery(smj7Query(ParseQuery(input)))
	}
	return b.runQuery(bleve.NewQueryStringQuery(input))
}

func smj7Query(q Query) bleveQuery.Query {
	if q.Empty() {
		return bleve.NewMatchAllQuery()
	}
	root := bleve.NewBooleanQuery()

	addOrGroup := func(terms []string, fields ...string) {
		if len(terms) == 0 {
			return
		}
		sub := bleve.NewBooleanQuery()
		for _, t := range terms {
			for _, f := range fields {
				mq := bleve.NewMatchQuery(t)
				mq.SetField(f)
				sub.AddShould(mq)
			}
		}
		root.AddMust(sub)
	}

	addOrGroup(q.Genres, "genre")
	addOrGroup(q.Artists, "artist")
	addOrGroup(q.Albums, "album")
	addOrGroup(q.Titles, "title")
	addOrGroup(q.Any, "artist", "album", "title")
	return root
}

func (b *BleveStore) runQuery(q bleveQuery.Query) ([]media.Media, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = b.MaxResults
	req.Fields = []string{"*"}
	req.SortBy([]string{"artist", "album", "discnumber", "tracknumber"})

	res, err := b.index.Search(req)
	if err != nil {
		return nil, err
	}
	if res.Total > uint64(len(res.Hits)) {
		b.log.Warn().Uint64("total", res.Total).Int("returned", len(res.Hits)).Msg("search results truncated")
	}

	results := make([]media.Media, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, mediaFromHit(hit))
	}
	return results, nil
}

// mediaFromHit rebuilds a record from stored fields; numbers come back as float64.
func mediaFromHit(hit *search.DocumentMatch) media.Media {
	getStr := func(f string) string {
		if v, ok := hit.Fields[f].(string); ok {
			return v
		}
		return ""
	}
	getInt := func(f string) int {
		if v, ok := hit.Fields[f].(float64); ok {
			return int(v)
		}
		return 0
	}
	return media.Media{
		Title:       getStr("title"),
		Artist:      getStr("artist"),
		Album:       getStr("album"),
		Genre:       getStr("genre"),
		Path:        getStr("path"),
		TrackNumber: getInt("tracknumber"),
		DiscNumber:  getInt("discnumber"),
	}
}

var _ Datastore = (*BleveStore)(nil)
