package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag/internal/models"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Answer
	}{
		{"both markers", "Answer: X\nReasoning: Y", Answer{Answer: "X", Reasoning: "Y"}},
		{"answer only", "Answer: X", Answer{Answer: "X"}},
		{"no markers", "no markers here", Answer{Answer: "no markers here"}},
		{"reasoning only", "Revenue rose.\nReasoning: the table says so ", Answer{Answer: "Revenue rose.\nReasoning: the table says so ", Reasoning: "the table says so"}},
		{"multiline", "Answer:\n  NVIDIA had the highest margin.\n\nReasoning:\n  54.1% vs 41.8%.\n", Answer{Answer: "NVIDIA had the highest margin.", Reasoning: "54.1% vs 41.8%."}},
		{"preamble", "Sure.\nAnswer: 42\nReasoning: math", Answer{Answer: "Sure.\n 42", Reasoning: "math"}},
		{"empty", "", Answer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAnswer(tt.raw))
		})
	}
}

var sampleBlocks = []models.ContextBlock{
	{SubQuery: "NVIDIA revenue 2023", Units: []models.RetrievalUnit{textUnit("Revenue was $26.97 billion.", "data/nvidia-2023.pdf", 0)}},
}

func TestSynthesize(t *testing.T) {
	llm := replyWith("Answer: $26.97 billion\nReasoning: stated in the filing")
	a, err := NewSynthesizer(llm, false).Synthesize(context.Background(), "What was NVIDIA revenue in 2023?", sampleBlocks)
	require.NoError(t, err)
	assert.Equal(t, Answer{Answer: "$26.97 billion", Reasoning: "stated in the filing"}, a)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "Question: What was NVIDIA revenue in 2023?\n\nContext from 10-K filings:\nSub-question: NVIDIA revenue 2023")
	assert.Contains(t, prompt, "Answer: [your answer here]\nReasoning: [your reasoning here]")
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestSynthesizeStructured(t *testing.T) {
	llm := replyWith(`{"answer": " $26.97 billion ", "reasoning": "stated in the filing"}`)
	a, err := NewSynthesizer(llm, true).Synthesize(context.Background(), "q", sampleBlocks)
	require.NoError(t, err)
	assert.Equal(t, Answer{Answer: "$26.97 billion", Reasoning: "stated in the filing"}, a)
	assert.Contains(t, llm.lastPrompt(), "keys 'answer' and 'reasoning'")
}

func TestSynthesizeStructuredFallsBackToMarkers(t *testing.T) {
	for _, raw := range []string{"Answer: X\nReasoning: Y", `{"answer": "", "reasoning": "Y"}`} {
		a, err := NewSynthesizer(replyWith(raw), true).Synthesize(context.Background(), "q", sampleBlocks)
		require.NoError(t, err)
		assert.Equal(t, ParseAnswer(raw), a)
	}
}

func TestSynthesizeModelError(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewSynthesizer(&fakeCompleter{respond: func(string) (string, error) { return "", boom }}, false).
		Synthesize(context.Background(), "q", sampleBlocks)
	assert.ErrorIs(t, err, boom)
}
