package cli

import (
	"fmt"

	"docqa/config"
	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/store"
	"docqa/internal/artifact"
	"docqa/internal/port"
	"docqa/internal/usecase"

	chunkeradapter "docqa/internal/adapter/chunker"
)

// app bundles everything a command needs, plus the store handle so the
// command can close it.
type app struct {
	pipeline *usecase.Pipeline
	manager  *artifact.Manager
	store    *store.BoltStore
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// newApp wires the full pipeline from config: corpus source, chunker,
// embedder, persisted artifact store, manager, retriever (cached when
// configured) and generator. Any previously persisted artifact is restored
// so ask and status work without a rebuild.
func newApp(cfg *config.Config, dir string) (*app, error) {
	source, err := fs.NewCorpusSource(dir, cfg.Corpus.Includes, cfg.Corpus.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}

	chunker, err := chunkeradapter.New(cfg.Chunking.Strategy, cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .docqa directory: %w", err)
	}
	st, err := store.NewBoltStore(config.ArtifactDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	manager := artifact.NewManager(source, chunker, embedder, st, artifact.Params{
		Strategy:     cfg.Chunking.Strategy,
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		BatchSize:    cfg.Embedding.BatchSize,
	})
	if err := manager.Restore(); err != nil {
		st.Close()
		return nil, err
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	var retriever cache.Retriever = usecase.NewRetriever(embedder, manager)
	var retrievalCache *cache.RetrievalCache
	if cfg.Retrieve.CacheSize > 0 {
		retrievalCache = cache.NewRetrievalCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
		retriever = cache.NewCachedRetriever(retriever, retrievalCache)
	}

	return &app{
		pipeline: usecase.NewPipeline(retriever, generator, manager, retrievalCache, cfg.Retrieve.TopK),
		manager:  manager,
		store:    st,
	}, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.Dimension, e.BatchSize)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func newGenerator(cfg *config.Config) (*usecase.Generator, error) {
	g := cfg.Generation
	var model port.LLM
	var err error
	switch g.Provider {
	case "openai":
		if g.BaseURL != "" {
			model, err = llm.NewOpenAICompatibleGenerator(g.APIKeyEnv, g.Model, g.BaseURL)
		} else {
			model, err = llm.NewOpenAIGenerator(g.APIKeyEnv, g.Model)
		}
	case "ollama":
		model, err = llm.NewOllamaGenerator(g.Model, g.BaseURL)
	case "mock":
		model = llm.NewMockGenerator("")
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", g.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	return usecase.NewGenerator(model, analyzer.NewTokenizer(), g.ContextBudget, g.Timeout), nil
}
