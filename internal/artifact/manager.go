package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"docqa/internal/domain"
	"docqa/internal/index"
	"docqa/internal/port"
)

// Params carries the build configuration recorded in each manifest.
type Params struct {
	Strategy     string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
}

// Progress reports build advancement to the caller (passages embedded so
// far out of the total). May be nil.
type Progress func(done, total int)

// Manager builds, validates, persists and atomically swaps artifacts. The
// current-artifact pointer is the only state mutated after startup; readers
// snapshot it once per query and never observe a half-updated pair.
type Manager struct {
	source   port.DocumentSource
	chunker  port.Chunker
	embedder port.Embedder
	store    Store // optional
	params   Params

	current    atomic.Pointer[Artifact]
	building   atomic.Bool
	generation atomic.Uint64
}

func NewManager(source port.DocumentSource, chunker port.Chunker, embedder port.Embedder, store Store, params Params) *Manager {
	if params.BatchSize <= 0 {
		params.BatchSize = 100
	}
	return &Manager{
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		params:   params,
	}
}

// Current returns the serving artifact, or nil before the first successful
// build. Callers must hold on to the returned value for the whole query
// rather than calling Current repeatedly.
func (m *Manager) Current() *Artifact {
	return m.current.Load()
}

// Restore loads the persisted artifact at startup, if any.
func (m *Manager) Restore() error {
	if m.store == nil {
		return nil
	}
	art, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted artifact: %w", err)
	}
	if art == nil {
		return nil
	}
	if err := Validate(art); err != nil {
		return fmt.Errorf("persisted artifact rejected: %w", err)
	}
	m.current.Store(art)
	m.generation.Store(art.Manifest.Generation)
	return nil
}

// Rebuild produces a brand-new artifact from the full corpus and swaps it
// in. target, when non-empty, names the document whose change triggered the
// rebuild; it must exist in the corpus, and the result is still a complete
// artifact (untouched documents are re-chunked and re-embedded identically,
// relying on chunker and embedder determinism) rather than an in-place
// patch. On any failure the previous artifact keeps serving untouched.
// Only one build runs at a time; a second request fails fast with
// ErrBuildInProgress.
func (m *Manager) Rebuild(ctx context.Context, target string, progress Progress) (*Artifact, error) {
	if !m.building.CompareAndSwap(false, true) {
		return nil, domain.ErrBuildInProgress
	}
	defer m.building.Store(false)

	art, err := m.build(ctx, target, progress)
	if err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.store.Save(art); err != nil {
			return nil, fmt.Errorf("failed to persist artifact: %w", err)
		}
	}

	// the swap: a single pointer store, indivisible for readers. The
	// generation counter advances only here, so failed builds leave no
	// gaps in the version sequence.
	m.generation.Store(art.Manifest.Generation)
	m.current.Store(art)
	return art, nil
}

func (m *Manager) build(ctx context.Context, target string, progress Progress) (*Artifact, error) {
	docs, err := m.source.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	if target != "" {
		found := false
		for _, doc := range docs {
			if doc.ID == target {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("reload target %q is not in the corpus", target)
		}
	}

	// dense zero-based passage ids in chunking order
	var passages []domain.Passage
	docTimes := make(map[string]int64, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}

		content, err := m.source.Read(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", doc.ID, err)
		}
		candidates, err := m.chunker.Chunk(doc, content)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.ID, err)
		}
		for _, cand := range candidates {
			passages = append(passages, domain.Passage{
				ID:      len(passages),
				Text:    cand.Text,
				Source:  doc.ID,
				Ordinal: cand.Ordinal,
			})
		}
		docTimes[doc.ID] = doc.ModTime.Unix()
	}

	vectors, err := m.embedAll(ctx, passages, progress)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(m.embedder.Dimension(), vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	manifest := domain.Manifest{
		Generation:   m.generation.Load() + 1,
		BuiltAt:      time.Now().UTC(),
		EmbedModel:   m.embedder.ModelName(),
		Dimension:    m.embedder.Dimension(),
		Strategy:     m.chunker.Strategy(),
		ChunkSize:    m.params.ChunkSize,
		ChunkOverlap: m.params.ChunkOverlap,
		Documents:    docTimes,
		Passages:     len(passages),
	}

	art := New(manifest, idx, passages)
	if err := Validate(art); err != nil {
		return nil, err
	}
	return art, nil
}

func (m *Manager) embedAll(ctx context.Context, passages []domain.Passage, progress Progress) ([][]float32, error) {
	total := len(passages)
	vectors := make([][]float32, 0, total)

	for start := 0; start < total; start += m.params.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}

		end := start + m.params.BatchSize
		if end > total {
			end = total
		}
		texts := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			texts = append(texts, p.Text)
		}

		batch, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed passages %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d passages", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(end, total)
		}
	}

	return vectors, nil
}
