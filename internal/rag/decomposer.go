package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"filing-rag/internal/llmservice"
	"filing-rag/internal/logger"
	"filing-rag/internal/models"
)

type Decomposer struct {
	llm       llmservice.Completer
	companies []string
}

// NewDecomposer uses companies for "which company" style questions.
func NewDecomposer(llm llmservice.Completer, companies []string) *Decomposer {
	if len(companies) == 0 {
		companies = models.DefaultCompanies
	}
	return &Decomposer{llm: llm, companies: companies}
}

func (d *Decomposer) Prompt(query string) string {
	return fmt.Sprintf(models.DecomposePromptTemplate, strings.Join(d.companies, ", "), query)
}

// Decompose returns the sub-queries for query. An empty list means the
// query should be searched as is. Only a failed model call is an error.
func (d *Decomposer) Decompose(ctx context.Context, query string) ([]string, error) {
	out, err := d.llm.Complete(ctx, d.Prompt(query), llms.WithJSONMode())
	if err != nil {
		return nil, err
	}
	subs, ok := ParseSubQueries(out.Text)
	if !ok {
		logger.FromContext(ctx).Warn().Str("output", out.Text).Msg("Unusable decomposition output, searching original query")
	}
	return subs, nil
}

// ParseSubQueries reads {"sub_queries": [...]} from raw model output.
// Invalid JSON, a missing or non-list field yield an empty list and
// ok=false. Blank entries are dropped and other scalars are formatted as text.
func ParseSubQueries(raw string) (subs []string, ok bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return []string{}, false
	}
	field, found := obj["sub_queries"]
	if !found {
		return []string{}, false
	}
	var items []any
	if err := json.Unmarshal(field, &items); err != nil {
		return []string{}, false
	}

	subs = []string{}
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case string:
			s = v
		case nil:
			continue
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	return subs, true
}
