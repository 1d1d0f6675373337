package port

import "docqa/internal/domain"

// Candidate is a passage produced by chunking, before it is assigned a
// dense id at build time.
type Candidate struct {
	Text    string
	Ordinal int
}

// Chunker splits document content into passage candidates. Output must be
// deterministic for identical content and configuration, and must never
// contain an empty-text candidate.
type Chunker interface {
	Chunk(doc domain.Document, content string) ([]Candidate, error)

	// Strategy returns the configured strategy name, recorded in the
	// artifact manifest.
	Strategy() string
}
