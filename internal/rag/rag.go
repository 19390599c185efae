package rag

import (
	"context"
	"strings"

	"filing-rag/internal/config"
	"filing-rag/internal/helper"
	"filing-rag/internal/logger"
	"filing-rag/internal/metrics"
	"filing-rag/internal/models"
)

// RAG answers questions over a built vector index. It holds no mutable
// state and is safe for concurrent use.
type RAG struct {
	cfg         config.RAGConfig
	decomposer  *Decomposer
	searcher    Searcher
	synthesizer *Synthesizer
	metrics     *metrics.Metrics
}

func NewRAG(cfg config.RAGConfig, decomposer *Decomposer, searcher Searcher, synthesizer *Synthesizer, m *metrics.Metrics) *RAG {
	return &RAG{
		cfg:         cfg,
		decomposer:  decomposer,
		searcher:    searcher,
		synthesizer: synthesizer,
		metrics:     m,
	}
}

// EffectiveK maps a requested k onto the configured range: k <= 0 means the
// default and anything above max_k is clamped.
func (r *RAG) EffectiveK(k int) int {
	if k <= 0 {
		return r.cfg.DefaultK
	}
	if r.cfg.MaxK > 0 && k > r.cfg.MaxK {
		return r.cfg.MaxK
	}
	return k
}

// Query runs decomposition, retrieval and synthesis for one question.
// Blank input returns ErrEmptyQuery without calling the model or index;
// any other failure wraps ErrQueryFailed.
func (r *RAG) Query(ctx context.Context, query string, k int) (*models.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	k = r.EffectiveK(k)

	if logger.RequestID(ctx) == "" {
		if id, err := helper.GenerateUUID(); err == nil {
			ctx = logger.WithRequestID(ctx, id)
		}
	}
	l := logger.FromContext(ctx)
	defer r.metrics.Timer(metrics.StageTotal)()

	stop := r.metrics.Timer(metrics.StageDecompose)
	subQueries, err := r.decomposer.Decompose(ctx, query)
	stop()
	if err != nil {
		r.metrics.Error(metrics.StageDecompose)
		l.Error().Err(err).Msg("Decomposition failed")
		return nil, queryFailed("decomposition", err)
	}

	searches := subQueries
	if len(searches) == 0 {
		searches = []string{query}
	}
	r.metrics.SubQueries(len(searches))
	l.Debug().Strs("sub_queries", subQueries).Int("k", k).Msg("Retrieving context")

	stop = r.metrics.Timer(metrics.StageRetrieve)
	blocks, err := RetrieveAll(ctx, r.searcher, searches, k, r.cfg.Parallelism)
	stop()
	if err != nil {
		r.metrics.Error(metrics.StageRetrieve)
		l.Error().Err(err).Msg("Retrieval failed")
		return nil, queryFailed("retrieval", err)
	}

	stop = r.metrics.Timer(metrics.StageSynthesize)
	answer, err := r.synthesizer.Synthesize(ctx, query, blocks)
	stop()
	if err != nil {
		r.metrics.Error(metrics.StageSynthesize)
		l.Error().Err(err).Msg("Synthesis failed")
		return nil, queryFailed("synthesis", err)
	}

	sources := Citations(blocks, r.cfg.ExcerptLen)
	l.Info().Int("sub_queries", len(subQueries)).Int("sources", len(sources)).Msg("Query answered")

	return &models.QueryResult{
		Query:      query,
		Answer:     answer.Answer,
		Reasoning:  answer.Reasoning,
		SubQueries: subQueries,
		Sources:    sources,
	}, nil
}
