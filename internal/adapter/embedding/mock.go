package embedding

import (
	"context"
	"math"
)

// MockEmbedder produces deterministic vectors derived from the text alone,
// for tests and offline runs. The same text always maps to the same vector
// regardless of batch composition.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.encode(text)
	}
	return embeddings, nil
}

// encode folds rune values into the vector and normalizes it, so cosine
// similarity behaves sensibly for near-identical texts.
func (e *MockEmbedder) encode(text string) []float32 {
	v := make([]float32, e.dimension)
	for i, r := range text {
		v[(i+int(r))%e.dimension] += float32(r) / 1000.0
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
