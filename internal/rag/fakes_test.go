package rag

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/llms"

	"filing-rag/internal/llmservice"
	"filing-rag/internal/models"
)

type fakeCompleter struct {
	respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
}

func replyWith(text string) *fakeCompleter {
	return &fakeCompleter{respond: func(string) (string, error) { return text, nil }}
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ ...llms.CallOption) (llmservice.Completion, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	text, err := f.respond(prompt)
	if err != nil {
		return llmservice.Completion{}, err
	}
	return llmservice.Completion{Kind: llmservice.KindStructured, Text: text}, nil
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeSearcher struct {
	results map[string][]models.RetrievalUnit
	delays  map[string]time.Duration
	err     error

	calls atomic.Int32
	mu    sync.Mutex
	ks    []int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]models.RetrievalUnit, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.ks = append(f.ks, k)
	f.mu.Unlock()

	if d := f.delays[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func textUnit(content, path string, idx int) models.RetrievalUnit {
	return models.RetrievalUnit{
		Content: content,
		Metadata: models.UnitMetadata{
			SourceID:   models.PositionIndex(idx),
			SourcePath: path,
			ChunkType:  models.ChunkTypeText,
			ChunkIndex: models.PositionIndex(idx),
		},
	}
}

func tableUnit(content, path string, n int) models.RetrievalUnit {
	return models.RetrievalUnit{
		Content: content,
		Metadata: models.UnitMetadata{
			SourceID:   models.TableIndex(n),
			SourcePath: path,
			ChunkType:  models.ChunkTypeTable,
			ChunkIndex: models.TableIndex(n),
		},
	}
}

func isDecomposePrompt(p string) bool {
	return strings.HasPrefix(p, "Analyze the given financial question")
}
