package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"filing-rag/internal/chromemdb"
	"filing-rag/internal/config"
	"filing-rag/internal/embedding"
	"filing-rag/internal/helper"
	"filing-rag/internal/llmservice"
	"filing-rag/internal/metrics"
	"filing-rag/internal/rag"
	"filing-rag/internal/store"
)

type app struct {
	index *chromemdb.Index
	rag   *rag.RAG
}

// mustBuildApp loads the chunk store and builds or imports the vector index.
// Any failure is fatal: nothing can be answered without an index.
func mustBuildApp(ctx context.Context, cfg *config.Config, fromSnapshot bool, m *metrics.Metrics) *app {
	embed, err := embedding.NewEmbeddingFunc(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	index := chromemdb.NewIndex(&cfg.Index, embed, cfg.RAG.DefaultK)

	if fromSnapshot {
		if err := index.Import(cfg.Index.SnapshotPath, cfg.Index.EncryptionKey); err != nil {
			log.Fatal().Err(err).Str("path", cfg.Index.SnapshotPath).Msg("Error importing vector index")
		}
	} else {
		buildIndex(ctx, cfg, index)
	}

	decomposeLLM, err := llmservice.NewClient(&cfg.LLM, cfg.LLM.DecomposeModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing decomposition model")
	}
	synthLLM, err := llmservice.NewClient(&cfg.LLM, cfg.LLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing synthesis model")
	}

	r := rag.NewRAG(
		cfg.RAG,
		rag.NewDecomposer(decomposeLLM, cfg.RAG.DefaultCompanies),
		index,
		rag.NewSynthesizer(synthLLM, cfg.RAG.StructuredOutput),
		m,
	)
	return &app{index: index, rag: r}
}

func buildIndex(ctx context.Context, cfg *config.Config, index *chromemdb.Index) {
	loader, closeFn := newLoader(cfg)
	defer closeFn()

	records, err := loader.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading chunk records")
	}
	units := rag.Assemble(records)
	log.Info().Int("records", len(records)).Int("units", len(units)).Msg("Assembled retrieval units")

	if err := index.Build(ctx, units); err != nil {
		log.Fatal().Err(err).Msg("Error building vector index")
	}

	if path := cfg.Index.SnapshotPath; path != "" {
		if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
			log.Fatal().Err(err).Msg("Error creating snapshot folder")
		}
		if err := index.Export(path, cfg.Index.EncryptionKey); err != nil {
			log.Fatal().Err(err).Msg("Error exporting vector index")
		}
		log.Info().Str("path", path).Msg("Vector index snapshot written")
	}
}

func newLoader(cfg *config.Config) (store.Loader, func()) {
	if cfg.Store.Backend != "postgres" {
		return store.NewJSONLStore(cfg.OutDir, cfg.Store.FirstLineOnly), func() {}
	}
	sqldb, err := store.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	pg := store.NewPostgresStore(sqldb, cfg.Database.Debug)
	return pg, func() { pg.Close() }
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
