package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIndexPage(t *testing.T) {
	assert.Nil(t, TableIndex(0).Page())
	assert.Nil(t, LabelIndex("").Page())
	assert.Nil(t, LabelIndex("7a").Page())

	p := PositionIndex(3).Page()
	require.NotNil(t, p)
	assert.Equal(t, 4, *p)

	p = LabelIndex("7").Page()
	require.NotNil(t, p)
	assert.Equal(t, 8, *p)
}

func TestChunkIndexJSON(t *testing.T) {
	rec := ChunkRecord{
		ID:         "nvda-2023",
		SourcePath: "data/nvda-2023.pdf",
		Engine:     "pdf",
		Chunks: []ChunkUnit{
			{Content: "revenue grew", Type: ChunkTypeText, ChunkIndex: PositionIndex(0)},
			{Content: "| a | b |", Type: ChunkTypeTable, ChunkIndex: TableIndex(0)},
		},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"chunk_index":0`)
	assert.Contains(t, string(data), `"chunk_index":"table_0"`)

	var back ChunkRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestChunkIndexRejectsObjects(t *testing.T) {
	var c ChunkIndex
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &c))
}

func TestParseChunkIndex(t *testing.T) {
	assert.Equal(t, PositionIndex(12), ParseChunkIndex("12", false))
	assert.Equal(t, LabelIndex("12"), ParseChunkIndex("12", true))
	assert.Equal(t, TableIndex(2), ParseChunkIndex("table_2", true))
	assert.Equal(t, LabelIndex("oops"), ParseChunkIndex("oops", false))
}

func TestErrorRecord(t *testing.T) {
	var rec ChunkRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","source_path":"data/x.pdf","engine":"error","error":"boom"}`), &rec))
	assert.True(t, rec.Failed())
	assert.Empty(t, rec.Chunks)
	assert.Equal(t, "boom", rec.Error)
}
