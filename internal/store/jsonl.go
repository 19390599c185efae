package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"filing-rag/internal/models"
)

const maxLineSize = 64 << 20

// JSONLStore keeps one newline-delimited JSON file per source document.
type JSONLStore struct {
	dir           string
	firstLineOnly bool
}

// NewJSONLStore returns a store rooted at dir. With firstLineOnly set, Load
// reads just the first record of each file.
func NewJSONLStore(dir string, firstLineOnly bool) *JSONLStore {
	return &JSONLStore{dir: dir, firstLineOnly: firstLineOnly}
}

func (s *JSONLStore) Load(ctx context.Context) ([]models.ChunkRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk store %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var records []models.ChunkRecord
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := s.readFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	log.Debug().Str("dir", s.dir).Int("files", len(names)).Int("records", len(records)).Msg("Loaded chunk records")
	return records, nil
}

func (s *JSONLStore) readFile(path string) ([]models.ChunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []models.ChunkRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec models.ChunkRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s line %d: %w", path, line, err)
		}
		records = append(records, rec)
		if s.firstLineOnly {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// WriteRecord replaces <dir>/<id>.jsonl with a single line holding rec.
func (s *JSONLStore) WriteRecord(_ context.Context, rec models.ChunkRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(s.dir, rec.ID+".jsonl"), data, 0o644)
}
