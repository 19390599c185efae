package store

import (
	"context"

	"filing-rag/internal/models"
)

// Loader reads every persisted chunk record.
type Loader interface {
	Load(ctx context.Context) ([]models.ChunkRecord, error)
}

// Writer persists one chunk record.
type Writer interface {
	WriteRecord(ctx context.Context, rec models.ChunkRecord) error
}
