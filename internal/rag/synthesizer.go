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

type Answer struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

type Synthesizer struct {
	llm        llmservice.Completer
	structured bool
}

// NewSynthesizer asks for a JSON answer in structured mode and falls back to
// the Answer:/Reasoning: markers when the reply is not usable JSON.
func NewSynthesizer(llm llmservice.Completer, structured bool) *Synthesizer {
	return &Synthesizer{llm: llm, structured: structured}
}

func (s *Synthesizer) Prompt(query string, blocks []models.ContextBlock) string {
	tmpl := models.SynthesisPromptTemplate
	if s.structured {
		tmpl = models.StructuredSynthesisPromptTemplate
	}
	return fmt.Sprintf(tmpl, query, BuildContext(blocks))
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, blocks []models.ContextBlock) (Answer, error) {
	l := logger.FromContext(ctx)

	var opts []llms.CallOption
	if s.structured {
		opts = append(opts, llms.WithJSONMode())
	}
	out, err := s.llm.Complete(ctx, s.Prompt(query, blocks), opts...)
	if err != nil {
		return Answer{}, err
	}
	if out.Kind == llmservice.KindRaw && out.Text == "" {
		l.Warn().Msg("Empty synthesis completion")
	}

	if s.structured {
		var a Answer
		if err := json.Unmarshal([]byte(strings.TrimSpace(out.Text)), &a); err == nil && strings.TrimSpace(a.Answer) != "" {
			a.Answer = strings.TrimSpace(a.Answer)
			a.Reasoning = strings.TrimSpace(a.Reasoning)
			return a, nil
		}
		l.Warn().Msg("Structured answer not usable, parsing markers")
	}

	a := ParseAnswer(out.Text)
	if a.Reasoning == "" {
		l.Debug().Msg("Answer has no reasoning section")
	}
	return a, nil
}

// ParseAnswer splits a reply into answer and reasoning using the
// Answer: and Reasoning: markers.
//
//	both markers     answer before Reasoning: without the Answer: label, reasoning after it
//	Answer: only     answer after the label, no reasoning
//	Reasoning: only  answer is the whole reply, reasoning after the label
//	neither          answer is the whole reply, no reasoning
func ParseAnswer(raw string) Answer {
	hasAnswer := strings.Contains(raw, models.AnswerMarker)
	hasReasoning := strings.Contains(raw, models.ReasoningMarker)

	switch {
	case hasAnswer && hasReasoning:
		before, after, _ := strings.Cut(raw, models.ReasoningMarker)
		return Answer{
			Answer:    strings.TrimSpace(strings.ReplaceAll(before, models.AnswerMarker, "")),
			Reasoning: strings.TrimSpace(after),
		}
	case hasAnswer:
		_, after, _ := strings.Cut(raw, models.AnswerMarker)
		return Answer{Answer: strings.TrimSpace(after)}
	case hasReasoning:
		_, after, _ := strings.Cut(raw, models.ReasoningMarker)
		return Answer{Answer: raw, Reasoning: strings.TrimSpace(after)}
	default:
		return Answer{Answer: raw}
	}
}
