package domain

import "time"

// Document is one source file in the corpus. ID is the path relative to the
// corpus root, with forward slashes.
type Document struct {
	ID      string
	Path    string
	ModTime time.Time
}

// Passage is the atomic retrievable unit. IDs are dense, zero-based and
// assigned in chunking order within one artifact generation; they are not
// stable across rebuilds.
type Passage struct {
	ID      int
	Text    string
	Source  string
	Ordinal int
}

// ScoredPassage pairs a passage with its similarity score for one query.
type ScoredPassage struct {
	Passage Passage
	Score   float64
}

// SourceRef identifies a passage that was supplied as generation context.
type SourceRef struct {
	Source  string  `json:"source"`
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
}

// Answer is the generated text plus the passages actually used as context.
// Grounded is false when the model answered from the query alone.
type Answer struct {
	Text     string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
	Grounded bool        `json:"grounded"`
}

// Manifest records how one artifact generation was built.
type Manifest struct {
	Generation   uint64           `json:"generation"`
	BuiltAt      time.Time        `json:"built_at"`
	EmbedModel   string           `json:"embed_model"`
	Dimension    int              `json:"dimension"`
	Strategy     string           `json:"chunk_strategy"`
	ChunkSize    int              `json:"chunk_size"`
	ChunkOverlap int              `json:"chunk_overlap"`
	Documents    map[string]int64 `json:"documents"`
	Passages     int              `json:"passages"`
}
