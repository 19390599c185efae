package rag

import (
	"github.com/samber/lo"

	"filing-rag/internal/models"
)

// Assemble turns chunk records into retrieval units, one per chunk, in
// record then chunk order. Records whose extraction failed are skipped.
func Assemble(records []models.ChunkRecord) []models.RetrievalUnit {
	usable := lo.Filter(records, func(r models.ChunkRecord, _ int) bool {
		return !r.Failed()
	})

	var units []models.RetrievalUnit
	for _, rec := range usable {
		for _, c := range rec.Chunks {
			units = append(units, models.RetrievalUnit{
				Content: c.Content,
				Metadata: models.UnitMetadata{
					SourceID:   c.ChunkIndex,
					SourcePath: rec.SourcePath,
					ChunkType:  c.Type,
					ChunkIndex: c.ChunkIndex,
					RecordID:   rec.ID,
				},
			})
		}
	}
	return units
}
