package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag/internal/models"
)

func TestRetrieveAllKeepsQueryOrder(t *testing.T) {
	u1a := textUnit("q1 first", "data/a-2023.pdf", 0)
	u1b := textUnit("q1 second", "data/a-2023.pdf", 1)
	u2a := textUnit("q2 only", "data/b-2023.pdf", 0)
	s := &fakeSearcher{
		results: map[string][]models.RetrievalUnit{"q1": {u1a, u1b}, "q2": {u2a}},
		delays:  map[string]time.Duration{"q1": 50 * time.Millisecond},
	}

	blocks, err := RetrieveAll(context.Background(), s, []string{"q1", "q2", "q3"}, 4, 3)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, models.ContextBlock{SubQuery: "q1", Units: []models.RetrievalUnit{u1a, u1b}}, blocks[0])
	assert.Equal(t, models.ContextBlock{SubQuery: "q2", Units: []models.RetrievalUnit{u2a}}, blocks[1])
	assert.Equal(t, "q3", blocks[2].SubQuery)
	assert.NotNil(t, blocks[2].Units)
	assert.Empty(t, blocks[2].Units)
	assert.Equal(t, []int{4, 4, 4}, s.ks)
}

func TestRetrieveAllSequential(t *testing.T) {
	s := &fakeSearcher{results: map[string][]models.RetrievalUnit{"q2": {textUnit("x", "p", 0)}}}
	blocks, err := RetrieveAll(context.Background(), s, []string{"q1", "q2"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "q1", blocks[0].SubQuery)
	assert.Len(t, blocks[1].Units, 1)
}

func TestRetrieveAllError(t *testing.T) {
	boom := errors.New("index offline")
	_, err := RetrieveAll(context.Background(), &fakeSearcher{err: boom}, []string{"q1", "q2"}, 1, 2)
	assert.ErrorIs(t, err, boom)
}

func TestBuildContext(t *testing.T) {
	blocks := []models.ContextBlock{
		{SubQuery: "NVIDIA revenue 2023", Units: []models.RetrievalUnit{
			textUnit("Revenue was $26.97 billion.", "data/nvidia-2023.pdf", 0),
			tableUnit("| Year | Revenue |", "data/nvidia-2023.pdf", 0),
		}},
		{SubQuery: "NVIDIA revenue 2022"},
	}
	want := "Sub-question: NVIDIA revenue 2023\n\n" +
		"[TEXT: data/nvidia-2023.pdf]\nRevenue was $26.97 billion.\n\n" +
		"[TABLE: data/nvidia-2023.pdf]\n| Year | Revenue |" +
		"\n\n---\n\n" +
		"Sub-question: NVIDIA revenue 2022"
	assert.Equal(t, want, BuildContext(blocks))
}

func TestCitations(t *testing.T) {
	long := strings.Repeat("x", 600)
	shared := textUnit(long, "data/nvidia-2023.pdf", 3)
	labelled := textUnit("seven", "data/nvidia-2023.pdf", 0)
	labelled.Metadata.ChunkIndex = models.LabelIndex("7")
	pathless := textUnit("no path", "", 2)

	blocks := []models.ContextBlock{
		{SubQuery: "q1", Units: []models.RetrievalUnit{shared, tableUnit("table", "data/nvidia-2023.pdf", 0)}},
		{SubQuery: "q2", Units: []models.RetrievalUnit{shared, labelled, pathless}},
		{SubQuery: "q3"},
	}
	got := Citations(blocks, 500)
	require.Len(t, got, 5)

	assert.Len(t, got[0].Excerpt, 500)
	require.NotNil(t, got[0].Page)
	assert.Equal(t, 4, *got[0].Page)

	assert.Equal(t, models.ChunkTypeTable, got[1].ChunkType)
	assert.Nil(t, got[1].Page)

	assert.Equal(t, got[0], got[2])

	require.NotNil(t, got[3].Page)
	assert.Equal(t, 8, *got[3].Page)

	assert.Nil(t, got[4].Page)
	assert.Equal(t, "no path", got[4].Excerpt)
}

func TestCitationsEmpty(t *testing.T) {
	got := Citations([]models.ContextBlock{{SubQuery: "q"}}, 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExcerptRunes(t *testing.T) {
	assert.Equal(t, "€€", excerpt("€€€", 2))
	assert.Equal(t, "ab", excerpt("ab", 5))
	assert.Equal(t, "", excerpt("", 5))
}
