package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// EngineError marks a record whose extraction failed. Such records carry
// only an error message and never reach the index.
const EngineError = "error"

type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeTable ChunkType = "table"
)

// ChunkRecord is the persisted result of extracting and chunking one source document.
type ChunkRecord struct {
	ID         string      `json:"id"`
	SourcePath string      `json:"source_path"`
	Engine     string      `json:"engine"`
	Chunks     []ChunkUnit `json:"chunks,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Failed reports whether extraction failed for this record.
func (r ChunkRecord) Failed() bool {
	return r.Engine == EngineError
}

// ChunkUnit is one text segment or table of a document.
type ChunkUnit struct {
	Content    string     `json:"content"`
	Type       ChunkType  `json:"type"`
	ChunkIndex ChunkIndex `json:"chunk_index"`
}

// ChunkIndex is either a reading-order position (encoded as a JSON number)
// or a label such as "table_0" (encoded as a JSON string).
type ChunkIndex struct {
	pos   int
	label string
	named bool
}

func PositionIndex(n int) ChunkIndex {
	return ChunkIndex{pos: n}
}

func LabelIndex(label string) ChunkIndex {
	return ChunkIndex{label: label, named: true}
}

func TableIndex(n int) ChunkIndex {
	return LabelIndex(fmt.Sprintf("table_%d", n))
}

// IsLabel reports whether the index was given as a string.
func (c ChunkIndex) IsLabel() bool {
	return c.named
}

func (c ChunkIndex) String() string {
	if c.named {
		return c.label
	}
	return strconv.Itoa(c.pos)
}

// Page derives a 1-based page number from the index. Positions and labels
// made only of digits map to index+1, anything else has no page.
// The result is a heuristic and not the page of the source document.
func (c ChunkIndex) Page() *int {
	if !c.named {
		p := c.pos + 1
		return &p
	}
	if c.label == "" {
		return nil
	}
	for _, r := range c.label {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(c.label)
	if err != nil {
		return nil
	}
	p := n + 1
	return &p
}

func (c ChunkIndex) MarshalJSON() ([]byte, error) {
	if c.named {
		return json.Marshal(c.label)
	}
	return json.Marshal(c.pos)
}

func (c *ChunkIndex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = LabelIndex(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chunk_index must be an integer or a string: %w", err)
	}
	*c = PositionIndex(n)
	return nil
}

// ParseChunkIndex rebuilds an index from its String form. named tells
// whether the index was written as a label.
func ParseChunkIndex(s string, named bool) ChunkIndex {
	if named {
		return LabelIndex(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return LabelIndex(s)
	}
	return PositionIndex(n)
}
