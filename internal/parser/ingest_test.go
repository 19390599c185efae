package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"filing-rag/internal/models"
)

type memoryWriter struct {
	records []models.ChunkRecord
	err     error
}

func (w *memoryWriter) WriteRecord(_ context.Context, rec models.ChunkRecord) error {
	if w.err != nil {
		return w.err
	}
	w.records = append(w.records, rec)
	return nil
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "msft-2023.txt"), "Microsoft revenue in 2023 was $211.9 billion.")
	writeFile(t, filepath.Join(dir, "nested", "nvda-2023.md"), filing)
	writeFile(t, filepath.Join(dir, "broken-2023.pdf"), "this is not a pdf")
	writeFile(t, filepath.Join(dir, "notes.csv"), "ignored")

	w := &memoryWriter{}
	summary, err := Ingest(context.Background(), dir, NewChunker(1000, 100), w)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Documents)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, w.records, 3)
	broken := w.records[0]
	assert.Equal(t, "broken-2023", broken.ID)
	assert.Equal(t, models.EngineError, broken.Engine)
	assert.NotEmpty(t, broken.Error)
	assert.Empty(t, broken.Chunks)

	assert.Equal(t, "msft-2023", w.records[1].ID)
	assert.Equal(t, EngineText, w.records[1].Engine)
	assert.Len(t, w.records[1].Chunks, 1)

	nvda := w.records[2]
	assert.Equal(t, filepath.Join(dir, "nested", "nvda-2023.md"), nvda.SourcePath)
	assert.Equal(t, models.ChunkTypeTable, nvda.Chunks[len(nvda.Chunks)-1].Type)
	assert.Equal(t, summary.Chunks, len(w.records[1].Chunks)+len(nvda.Chunks))
}

func TestIngestWriterError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "text")
	_, err := Ingest(context.Background(), dir, NewChunker(1000, 100), &memoryWriter{err: errors.New("disk full")})
	assert.ErrorContains(t, err, "disk full")
}

func TestIngestMissingDir(t *testing.T) {
	_, err := Ingest(context.Background(), filepath.Join(t.TempDir(), "missing"), NewChunker(1000, 100))
	assert.Error(t, err)
}

func TestExtractSpreadsheetStitching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goog-2023.xlsm")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Income"))
	require.NoError(t, f.SetSheetRow("Income", "A1", &[]interface{}{"Metric", "FY2023"}))
	require.NoError(t, f.SetSheetRow("Income", "A2", &[]interface{}{"Revenue", 307394}))
	for _, name := range []string{"Cont1", "Cont2"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	require.NoError(t, f.SetSheetRow("Cont1", "A1", &[]interface{}{"Operating income", 84293}))
	require.NoError(t, f.SetSheetRow("Cont2", "A1", &[]interface{}{"Net income", 73795}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	doc, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, EngineExcelize, doc.Engine)
	require.Len(t, doc.Tables, 3)
	assert.True(t, doc.Tables[0].HasHeader)
	assert.False(t, doc.Tables[1].HasHeader)
	assert.False(t, doc.Tables[2].HasHeader)

	rec, err := NewChunker(1000, 100).Chunk("goog-2023", path, doc)
	require.NoError(t, err)
	require.Len(t, rec.Chunks, 1)
	assert.Equal(t, models.TableIndex(0), rec.Chunks[0].ChunkIndex)
	assert.Equal(t, "| Metric | FY2023 |\n|---|---|\n| Revenue | 307394 |\nTable: Income\n| Operating income | 84293 |\n| Net income | 73795 |", rec.Chunks[0].Content)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("report.pptx")
	assert.ErrorContains(t, err, "unsupported file format")
}
