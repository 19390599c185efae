package models

// UnitMetadata is the provenance carried by every Retrieval Unit.
// SourceID repeats the chunk index, not the record id.
type UnitMetadata struct {
	SourceID   ChunkIndex
	SourcePath string
	ChunkType  ChunkType
	ChunkIndex ChunkIndex
	RecordID   string
}

// RetrievalUnit is one embeddable chunk plus its provenance.
type RetrievalUnit struct {
	Content  string
	Metadata UnitMetadata
}

// ContextBlock holds the units retrieved for one sub-query, in rank order.
type ContextBlock struct {
	SubQuery string
	Units    []RetrievalUnit
}

// Citation is the user-facing provenance of one retrieved unit.
type Citation struct {
	ChunkType  ChunkType `json:"chunk_type"`
	SourcePath string    `json:"source_path"`
	Excerpt    string    `json:"excerpt"`
	Page       *int      `json:"page"`
}

type QueryResult struct {
	Query      string     `json:"query"`
	Answer     string     `json:"answer"`
	Reasoning  string     `json:"reasoning"`
	SubQueries []string   `json:"sub_queries"`
	Sources    []Citation `json:"sources"`
}
