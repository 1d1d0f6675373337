package index

import (
	"fmt"
	"math"
	"sort"
)

// Hit is one search result. Position indexes into the vectors supplied at
// build time.
type Hit struct {
	Position int
	Score    float64
}

// Flat is a brute-force cosine-similarity index. It is immutable after
// Build, so any number of Search calls may run concurrently without
// coordination. Rebuilding always produces a fresh Flat; a handle that a
// concurrent reader still holds is never mutated.
type Flat struct {
	dimension int
	vectors   [][]float32
}

// Build constructs an index over the given vectors. The slice is copied so
// later mutation by the caller cannot reach a serving index.
func Build(dimension int, vectors [][]float32) (*Flat, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	owned := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
		owned[i] = append([]float32(nil), v...)
	}
	return &Flat{dimension: dimension, vectors: owned}, nil
}

// Search returns up to k positions ordered by descending cosine similarity,
// ties broken by ascending position. k larger than the stored count returns
// all entries.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", f.dimension, len(query))
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Position: i, Score: cosineSimilarity(query, v)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of stored vectors.
func (f *Flat) Size() int {
	return len(f.vectors)
}

// Dimension returns the configured vector dimension.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Vectors returns the stored vectors in positional order, for persistence.
func (f *Flat) Vectors() [][]float32 {
	return f.vectors
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
