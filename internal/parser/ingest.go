package parser

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"filing-rag/internal/models"
)

// RecordWriter persists chunk records.
type RecordWriter interface {
	WriteRecord(ctx context.Context, rec models.ChunkRecord) error
}

type IngestSummary struct {
	Documents int
	Failed    int
	Chunks    int
}

// Ingest extracts and chunks every supported file under dataDir, in path
// order, and hands each record to all writers. A file that cannot be
// extracted still produces a record tagged with the error engine.
func Ingest(ctx context.Context, dataDir string, chunker *Chunker, writers ...RecordWriter) (IngestSummary, error) {
	var paths []string
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return IngestSummary{}, fmt.Errorf("failed to walk %s: %w", dataDir, err)
	}
	sort.Strings(paths)

	var summary IngestSummary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec := BuildRecord(path, chunker)
		summary.Documents++
		if rec.Failed() {
			summary.Failed++
		}
		summary.Chunks += len(rec.Chunks)

		for _, w := range writers {
			if err := w.WriteRecord(ctx, rec); err != nil {
				return summary, fmt.Errorf("failed to store record %s: %w", rec.ID, err)
			}
		}
	}
	return summary, nil
}

// BuildRecord extracts and chunks a single file.
func BuildRecord(path string, chunker *Chunker) models.ChunkRecord {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	doc, err := Extract(path)
	if err == nil {
		var rec models.ChunkRecord
		rec, err = chunker.Chunk(id, path, doc)
		if err == nil {
			log.Info().Str("path", path).Str("engine", rec.Engine).Int("chunks", len(rec.Chunks)).Msg("Extracted document")
			return rec
		}
	}

	log.Warn().Err(err).Str("path", path).Msg("Extraction failed")
	return models.ChunkRecord{
		ID:         id,
		SourcePath: path,
		Engine:     models.EngineError,
		Error:      err.Error(),
	}
}
