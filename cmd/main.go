package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"filing-rag/internal/config"
	"filing-rag/internal/helper"
	"filing-rag/internal/logger"
	"filing-rag/internal/metrics"
	"filing-rag/internal/parser"
	"filing-rag/internal/server"
	"filing-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "finrag",
		Short:         "Question answering over financial filings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", configFilePath, "path to the config file")

	root.AddCommand(
		newIngestCommand(&configPath),
		newServeCommand(&configPath),
		newQueryCommand(&configPath),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	logger.Setup(cfg.Log)
	log.Debug().Str("path", path).Msg("Loaded config")
	return cfg
}

func newIngestCommand(configPath *string) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract and chunk every filing in data_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			ctx := cmd.Context()

			writers := []parser.RecordWriter{store.NewJSONLStore(cfg.OutDir, cfg.Store.FirstLineOnly)}
			if cfg.Store.Backend == "postgres" {
				pg, err := openPostgres(ctx, cfg, reset)
				if err != nil {
					return err
				}
				defer pg.Close()
				writers = append(writers, pg)
			}

			chunker := parser.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
			summary, err := parser.Ingest(ctx, cfg.DataDir, chunker, writers...)
			if err != nil {
				return err
			}
			log.Info().
				Int("documents", summary.Documents).
				Int("failed", summary.Failed).
				Int("chunks", summary.Chunks).
				Msg("Ingest finished")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the postgres chunk table before ingesting")
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	var fromSnapshot bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the vector index and serve the query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			app := mustBuildApp(ctx, cfg, fromSnapshot, m)
			return server.New(cfg.Server, app.rag, app.index, m).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&fromSnapshot, "from-snapshot", false, "import index.snapshot_path instead of rebuilding the index")
	return cmd
}

func newQueryCommand(configPath *string) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer one question and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			ctx := cmd.Context()

			app := mustBuildApp(ctx, cfg, false, nil)
			res, err := app.rag.Query(ctx, joinArgs(args), k)
			if err != nil {
				return err
			}
			return helper.PrettyPrint(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "units to retrieve per sub-query (0 uses rag.default_k)")
	return cmd
}

func openPostgres(ctx context.Context, cfg *config.Config, reset bool) (*store.PostgresStore, error) {
	sqldb, err := store.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	pg := store.NewPostgresStore(sqldb, cfg.Database.Debug)
	if reset {
		if err := pg.Drop(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	if err := pg.Init(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
