package parser

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"filing-rag/internal/models"
)

const (
	defaultChunkSize    = 1000 // characters
	defaultChunkOverlap = 200  // characters
)

// Chunker turns an extracted document into a chunk record: text segments
// first in reading order, then stitched tables in discovery order.
type Chunker struct {
	splitter textsplitter.TextSplitter
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(defaultChunkOverlap, chunkSize/2)
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

func (c *Chunker) Chunk(id, sourcePath string, doc ExtractedDocument) (models.ChunkRecord, error) {
	rec := models.ChunkRecord{
		ID:         id,
		SourcePath: sourcePath,
		Engine:     doc.Engine,
		Chunks:     []models.ChunkUnit{},
	}

	if strings.TrimSpace(doc.Text) != "" {
		pieces, err := c.splitter.SplitText(doc.Text)
		if err != nil {
			return models.ChunkRecord{}, fmt.Errorf("failed to split text of %s: %w", sourcePath, err)
		}
		idx := 0
		for _, p := range pieces {
			if strings.TrimSpace(p) == "" {
				continue
			}
			rec.Chunks = append(rec.Chunks, models.ChunkUnit{
				Content:    p,
				Type:       models.ChunkTypeText,
				ChunkIndex: models.PositionIndex(idx),
			})
			idx++
		}
	}

	for i, table := range StitchTables(doc.Tables) {
		rec.Chunks = append(rec.Chunks, models.ChunkUnit{
			Content:    table,
			Type:       models.ChunkTypeTable,
			ChunkIndex: models.TableIndex(i),
		})
	}
	return rec, nil
}
