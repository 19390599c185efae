package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"filing-rag/internal/config"
	"filing-rag/internal/models"
)

// ErrEmptyCorpus is returned by Build when there is nothing to index.
var ErrEmptyCorpus = errors.New("no retrieval units to index")

const (
	metaSourceID       = "source_id"
	metaSourcePath     = "source_path"
	metaChunkType      = "chunk_type"
	metaChunkIndex     = "chunk_index"
	metaChunkIndexKind = "chunk_index_kind"
	metaRecordID       = "record_id"

	kindPosition = "position"
	kindLabel    = "label"

	compress = true
)

// Index is the vector index over Retrieval Units. It is safe for concurrent
// searches; Build and Import take the write lock.
type Index struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collection  *chromem.Collection
	name        string
	embed       chromem.EmbeddingFunc
	concurrency int
	defaultK    int
}

// NewIndex creates an empty in-memory index. Call Build or Import before Search.
func NewIndex(cfg *config.IndexConfig, embed chromem.EmbeddingFunc, defaultK int) *Index {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if defaultK < 1 {
		defaultK = 1
	}
	return &Index{
		db:          chromem.NewDB(),
		name:        cfg.Collection,
		embed:       embed,
		concurrency: concurrency,
		defaultK:    defaultK,
	}
}

// Build embeds all units and replaces the collection. Document ids are
// zero-padded insertion positions so they sort in insertion order.
func (ix *Index) Build(ctx context.Context, units []models.RetrievalUnit) error {
	if len(units) == 0 {
		return ErrEmptyCorpus
	}

	docs := make([]chromem.Document, len(units))
	for i, u := range units {
		docs[i] = chromem.Document{
			ID:       docID(i),
			Content:  u.Content,
			Metadata: encodeMetadata(u.Metadata),
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.collection != nil {
		if err := ix.db.DeleteCollection(ix.name); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	c, err := ix.db.CreateCollection(ix.name, nil, ix.embed)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if err := c.AddDocuments(ctx, docs, ix.concurrency); err != nil {
		_ = ix.db.DeleteCollection(ix.name)
		ix.collection = nil
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	ix.collection = c

	log.Info().Str("collection", ix.name).Int("documents", len(docs)).Msg("Vector index built")
	return nil
}

// Search returns at most k units ranked by similarity to query. Equal
// similarities keep insertion order. k <= 0 uses the default k and a k
// above the corpus size returns the whole corpus.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.RetrievalUnit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.collection == nil {
		return nil, errors.New("vector index has not been built")
	}
	if k <= 0 {
		k = ix.defaultK
	}
	n := ix.collection.Count()
	if n == 0 {
		return []models.RetrievalUnit{}, nil
	}

	// chromem orders ties arbitrarily, so rank the full corpus and cut after
	// the stable sort to keep boundary ties deterministic.
	results, err := ix.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}

	units := make([]models.RetrievalUnit, len(results))
	for i, r := range results {
		units[i] = models.RetrievalUnit{
			Content:  r.Content,
			Metadata: decodeMetadata(r.Metadata),
		}
	}
	return units, nil
}

// Count reports the number of indexed units.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.collection == nil {
		return 0
	}
	return ix.collection.Count()
}

// Export writes the collection to a gzip compressed gob file, AES encrypted
// when key is set.
func (ix *Index) Export(path, key string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.collection == nil {
		return errors.New("collection is required")
	}
	if path == "" {
		return errors.New("snapshot path is required")
	}
	log.Debug().Str("path", path).Bool("encrypted", key != "").Msg("Exporting vector index")
	if err := ix.db.ExportToFile(path, compress, key, ix.name); err != nil {
		return fmt.Errorf("failed to export index: %w", err)
	}
	return nil
}

// Import loads a snapshot written by Export and replaces the collection.
func (ix *Index) Import(path, key string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.db.ImportFromFile(path, key, ix.name); err != nil {
		return fmt.Errorf("failed to import index: %w", err)
	}
	c := ix.db.GetCollection(ix.name, ix.embed)
	if c == nil {
		return fmt.Errorf("snapshot %s has no collection %q", path, ix.name)
	}
	if c.Count() == 0 {
		return ErrEmptyCorpus
	}
	ix.collection = c

	log.Info().Str("collection", ix.name).Int("documents", c.Count()).Msg("Vector index imported")
	return nil
}

func docID(i int) string {
	return fmt.Sprintf("%08d", i)
}

func indexKind(c models.ChunkIndex) string {
	if c.IsLabel() {
		return kindLabel
	}
	return kindPosition
}

func encodeMetadata(m models.UnitMetadata) map[string]string {
	return map[string]string{
		metaSourceID:       m.SourceID.String(),
		metaSourcePath:     m.SourcePath,
		metaChunkType:      string(m.ChunkType),
		metaChunkIndex:     m.ChunkIndex.String(),
		metaChunkIndexKind: indexKind(m.ChunkIndex),
		metaRecordID:       m.RecordID,
	}
}

func decodeMetadata(meta map[string]string) models.UnitMetadata {
	named := meta[metaChunkIndexKind] == kindLabel
	return models.UnitMetadata{
		SourceID:   models.ParseChunkIndex(meta[metaSourceID], named),
		SourcePath: meta[metaSourcePath],
		ChunkType:  models.ChunkType(meta[metaChunkType]),
		ChunkIndex: models.ParseChunkIndex(meta[metaChunkIndex], named),
		RecordID:   meta[metaRecordID],
	}
}
