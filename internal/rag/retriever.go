package rag

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"filing-rag/internal/models"
)

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.RetrievalUnit, error)
}

// RetrieveAll searches every query with k and returns one block per query in
// input order, whatever order the searches finish in. A query with no hits
// still gets an empty block. At most parallelism searches run at once.
func RetrieveAll(ctx context.Context, s Searcher, queries []string, k, parallelism int) ([]models.ContextBlock, error) {
	blocks := make([]models.ContextBlock, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			units, err := s.Search(ctx, q, k)
			if err != nil {
				return fmt.Errorf("search %q: %w", q, err)
			}
			if units == nil {
				units = []models.RetrievalUnit{}
			}
			blocks[i] = models.ContextBlock{SubQuery: q, Units: units}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// BuildContext renders the blocks for the synthesis prompt. Each block starts
// with its sub-question followed by every unit's full content under a
// [TYPE: source] label.
func BuildContext(blocks []models.ContextBlock) string {
	rendered := make([]string, len(blocks))
	for i, b := range blocks {
		lines := make([]string, 0, len(b.Units)+1)
		lines = append(lines, models.SubQueryLabel+b.SubQuery)
		for _, u := range b.Units {
			lines = append(lines, fmt.Sprintf("[%s: %s]\n%s",
				strings.ToUpper(string(u.Metadata.ChunkType)), u.Metadata.SourcePath, u.Content))
		}
		rendered[i] = strings.Join(lines, "\n\n")
	}
	return strings.Join(rendered, models.ContextSeparator)
}

// Citations lists one citation per retrieved unit per block. Units cited by
// several sub-queries appear once for each.
func Citations(blocks []models.ContextBlock, excerptLen int) []models.Citation {
	if excerptLen <= 0 {
		excerptLen = models.DefaultExcerptLen
	}
	out := []models.Citation{}
	for _, b := range blocks {
		for _, u := range b.Units {
			c := models.Citation{
				ChunkType:  u.Metadata.ChunkType,
				SourcePath: u.Metadata.SourcePath,
				Excerpt:    excerpt(u.Content, excerptLen),
			}
			if u.Metadata.SourcePath != "" {
				c.Page = u.Metadata.ChunkIndex.Page()
			}
			out = append(out, c)
		}
	}
	return out
}

// excerpt keeps the first n characters without splitting a rune.
func excerpt(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
