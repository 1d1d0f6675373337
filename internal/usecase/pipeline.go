package usecase

import (
	"context"
	"fmt"

	"docqa/internal/adapter/cache"
	"docqa/internal/artifact"
	"docqa/internal/domain"
)

// fallbackAnswer is returned when no grounded answer can be produced.
const fallbackAnswer = "No relevant information found."

// Pipeline composes retrieval and generation behind a single Ask call and
// exposes the reload and health operations to the transport layer.
type Pipeline struct {
	retriever cache.Retriever
	generator *Generator
	manager   *artifact.Manager
	cache     *cache.RetrievalCache // optional
	topK      int
}

func NewPipeline(retriever cache.Retriever, generator *Generator, manager *artifact.Manager, retrievalCache *cache.RetrievalCache, topK int) *Pipeline {
	if topK <= 0 {
		topK = 3
	}
	return &Pipeline{
		retriever: retriever,
		generator: generator,
		manager:   manager,
		cache:     retrievalCache,
		topK:      topK,
	}
}

// Ask answers the query against the current artifact. Before any artifact
// has been built it returns a degraded answer together with ErrEmptyCorpus
// so the caller can report the condition; with an artifact but no matching
// passages it degrades to ungrounded generation instead of erroring.
func (p *Pipeline) Ask(ctx context.Context, query string, filter *domain.Filter) (domain.Answer, error) {
	if p.manager.Current() == nil {
		return domain.Answer{
			Text:    fallbackAnswer,
			Sources: []domain.SourceRef{},
		}, domain.ErrEmptyCorpus
	}

	results, err := p.retriever.Retrieve(ctx, query, p.topK, filter)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	return p.generator.Generate(ctx, query, results)
}

// ReloadResult reports the outcome of one reload request.
type ReloadResult struct {
	Status     string `json:"status"`
	Generation uint64 `json:"artifact_version"`
	Passages   int    `json:"passages,omitempty"`
	Err        string `json:"error,omitempty"`
}

// Reload rebuilds the artifact, optionally restricted to one named
// document, and swaps it in. Build failures are captured in the result and
// never disturb concurrent Ask calls.
func (p *Pipeline) Reload(ctx context.Context, target string, progress artifact.Progress) ReloadResult {
	art, err := p.manager.Rebuild(ctx, target, progress)
	if err != nil {
		result := ReloadResult{Status: "failed", Err: err.Error()}
		if cur := p.manager.Current(); cur != nil {
			result.Generation = cur.Manifest.Generation
			result.Passages = cur.Size()
		}
		return result
	}

	if p.cache != nil {
		p.cache.Invalidate()
	}
	return ReloadResult{
		Status:     "ok",
		Generation: art.Manifest.Generation,
		Passages:   art.Size(),
	}
}

// Health reports whether a READY artifact exists.
type Health struct {
	Status     string `json:"status"`
	Generation uint64 `json:"artifact_version"`
	Documents  int    `json:"documents"`
	Passages   int    `json:"corpus_size"`
}

func (p *Pipeline) Health() Health {
	art := p.manager.Current()
	if art == nil {
		return Health{Status: "degraded"}
	}
	return Health{
		Status:     "ok",
		Generation: art.Manifest.Generation,
		Documents:  len(art.Manifest.Documents),
		Passages:   art.Size(),
	}
}
