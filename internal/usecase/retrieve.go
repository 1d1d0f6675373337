package usecase

import (
	"context"
	"fmt"

	"docqa/internal/artifact"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// Retriever turns a query into ranked passages from the currently serving
// artifact.
type Retriever struct {
	embedder port.Embedder
	manager  *artifact.Manager
}

func NewRetriever(embedder port.Embedder, manager *artifact.Manager) *Retriever {
	return &Retriever{embedder: embedder, manager: manager}
}

// Retrieve embeds the query, searches the artifact snapshotted at call
// start, resolves positions to passages and applies the filter post-hoc.
// Filtering below k does not widen the search; retry policy belongs to the
// caller. An empty corpus or a fully-filtered result is an empty slice, not
// an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, filter *domain.Filter) ([]domain.ScoredPassage, error) {
	// one snapshot for the whole call; the manager may swap underneath us
	art := r.manager.Current()
	if art == nil || art.Size() == 0 || k <= 0 {
		return nil, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	// over-fetch when filtering, since the filter drops candidates post-hoc
	fetch := k
	filtered := filter != nil && len(filter.Conditions) > 0
	if filtered {
		fetch = k * 3
	}

	hits, err := art.Index.Search(vectors[0], fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]domain.ScoredPassage, 0, k)
	for _, hit := range hits {
		passage, ok := art.Passage(hit.Position)
		if !ok {
			// validated artifacts make this unreachable
			return nil, fmt.Errorf("%w: search returned position %d outside metadata", domain.ErrIntegrity, hit.Position)
		}
		if filtered && !filter.Matches(passage) {
			continue
		}
		results = append(results, domain.ScoredPassage{Passage: passage, Score: hit.Score})
		if len(results) == k {
			break
		}
	}
	return results, nil
}
