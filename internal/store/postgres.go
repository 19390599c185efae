package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"filing-rag/internal/config"
	"filing-rag/internal/models"
)

type chunkRecordRow struct {
	bun.BaseModel `bun:"table:chunk_records,alias:cr"`
	ID            string             `bun:"id,pk"`
	SourcePath    string             `bun:"source_path,notnull"`
	Engine        string             `bun:"engine,notnull"`
	Error         string             `bun:"error"`
	Chunks        []models.ChunkUnit `bun:"chunks,type:jsonb"`
	CreatedAt     time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toRow(rec models.ChunkRecord) chunkRecordRow {
	return chunkRecordRow{
		ID:         rec.ID,
		SourcePath: rec.SourcePath,
		Engine:     rec.Engine,
		Error:      rec.Error,
		Chunks:     rec.Chunks,
	}
}

func (r chunkRecordRow) record() models.ChunkRecord {
	return models.ChunkRecord{
		ID:         r.ID,
		SourcePath: r.SourcePath,
		Engine:     r.Engine,
		Error:      r.Error,
		Chunks:     r.Chunks,
	}
}

// PostgresStore mirrors chunk records into a chunk_records table.
type PostgresStore struct {
	db *bun.DB
}

// ConnectDB opens the database with pgdriver, or lib/pq when driver is "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "pq" {
		return sql.Open("postgres", cfg.DSN)
	}
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
}

func NewPostgresStore(sqldb *sql.DB, debug bool) *PostgresStore {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresStore{db: db}
}

// Init creates the table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*chunkRecordRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create chunk_records: %w", err)
	}
	return nil
}

// WriteRecord upserts rec by id.
func (s *PostgresStore) WriteRecord(ctx context.Context, rec models.ChunkRecord) error {
	row := toRow(rec)
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("source_path = EXCLUDED.source_path").
		Set("engine = EXCLUDED.engine").
		Set("error = EXCLUDED.error").
		Set("chunks = EXCLUDED.chunks").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]models.ChunkRecord, error) {
	var rows []chunkRecordRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load chunk records: %w", err)
	}
	records := make([]models.ChunkRecord, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

// drop table chunk_records
func (s *PostgresStore) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*chunkRecordRow)(nil)).IfExists().Exec(ctx)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
