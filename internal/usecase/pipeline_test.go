package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/llm"
	"docqa/internal/artifact"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

type memSource struct {
	mu   sync.Mutex
	docs map[string]string
}

func newMemSource(docs map[string]string) *memSource {
	return &memSource{docs: docs}
}

func (s *memSource) List() ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []domain.Document
	for id := range s.docs {
		docs = append(docs, domain.Document{ID: id, Path: "/" + id, ModTime: time.Unix(1000, 0)})
	}
	return docs, nil
}

func (s *memSource) Read(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("document not found: %s", id)
	}
	return content, nil
}

func (s *memSource) Set(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = content
}

type fixture struct {
	source   *memSource
	manager  *artifact.Manager
	pipeline *usecase.Pipeline
	prompts  []string
	mu       sync.Mutex
}

func newFixture(t *testing.T, docs map[string]string) *fixture {
	t.Helper()
	f := &fixture{source: newMemSource(docs)}

	c, err := chunker.New(chunker.StrategyParagraph, 256, 0)
	require.NoError(t, err)
	embedder := embedding.NewMockEmbedder(16)
	f.manager = artifact.NewManager(f.source, c, embedder, nil, artifact.Params{
		Strategy:  chunker.StrategyParagraph,
		ChunkSize: 256,
	})

	mock := &llm.MockGenerator{Respond: func(prompt string) string {
		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		f.mu.Unlock()
		return "the answer"
	}}
	generator := usecase.NewGenerator(mock, analyzer.NewTokenizer(), 4096, time.Second)

	retrievalCache := cache.NewRetrievalCache(64, time.Minute)
	retriever := cache.NewCachedRetriever(usecase.NewRetriever(embedder, f.manager), retrievalCache)
	f.pipeline = usecase.NewPipeline(retriever, generator, f.manager, retrievalCache, 3)
	return f
}

func (f *fixture) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func TestAskBeforeFirstBuild(t *testing.T) {
	f := newFixture(t, map[string]string{"sky.txt": "The sky is blue."})

	answer, err := f.pipeline.Ask(context.Background(), "What color is the sky?", nil)
	require.ErrorIs(t, err, domain.ErrEmptyCorpus)
	require.Equal(t, "No relevant information found.", answer.Text)
	require.NotNil(t, answer.Sources)
	require.Empty(t, answer.Sources)
	require.False(t, answer.Grounded)
}

func TestAskSingleDocument(t *testing.T) {
	f := newFixture(t, map[string]string{"sky.txt": "The sky is blue."})

	result := f.pipeline.Reload(context.Background(), "", nil)
	require.Equal(t, "ok", result.Status)
	require.Equal(t, uint64(1), result.Generation)
	require.Equal(t, 1, result.Passages)

	answer, err := f.pipeline.Ask(context.Background(), "What color is the sky?", nil)
	require.NoError(t, err)
	require.True(t, answer.Grounded)
	require.Len(t, answer.Sources, 1)
	require.Equal(t, "sky.txt", answer.Sources[0].Source)
	require.Equal(t, 0, answer.Sources[0].Ordinal)
	require.Contains(t, f.lastPrompt(), "The sky is blue.")
}

func TestAskFilteredToNothing(t *testing.T) {
	f := newFixture(t, map[string]string{"sky.txt": "The sky is blue."})
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)

	filter := &domain.Filter{Conditions: []domain.Condition{
		{Field: domain.FieldSource, Op: domain.OpEq, Value: "other.txt"},
	}}
	answer, err := f.pipeline.Ask(context.Background(), "What color is the sky?", filter)
	require.NoError(t, err)
	require.False(t, answer.Grounded, "fully filtered retrieval degrades to ungrounded generation")
	require.Empty(t, answer.Sources)
}

func TestReloadFailureKeepsServing(t *testing.T) {
	f := newFixture(t, map[string]string{"sky.txt": "The sky is blue."})
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)

	result := f.pipeline.Reload(context.Background(), "missing.txt", nil)
	require.Equal(t, "failed", result.Status)
	require.NotEmpty(t, result.Err)
	require.Equal(t, uint64(1), result.Generation, "failed reload reports the still-serving generation")

	answer, err := f.pipeline.Ask(context.Background(), "What color is the sky?", nil)
	require.NoError(t, err)
	require.True(t, answer.Grounded)
}

func TestPartialReloadLeavesOtherDocumentsIdentical(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.txt": "Alpha paragraph one.\n\nAlpha paragraph two.",
		"b.txt": "Beta paragraph one.\n\nBeta paragraph two.",
	})
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)

	before := map[int]string{}
	for _, p := range f.manager.Current().Passages() {
		if p.Source == "b.txt" {
			before[p.Ordinal] = p.Text
		}
	}
	require.NotEmpty(t, before)

	f.source.Set("a.txt", "Alpha rewritten.")
	result := f.pipeline.Reload(context.Background(), "a.txt", nil)
	require.Equal(t, "ok", result.Status)
	require.Equal(t, uint64(2), result.Generation)

	var sawRewritten bool
	for _, p := range f.manager.Current().Passages() {
		switch p.Source {
		case "b.txt":
			require.Equal(t, before[p.Ordinal], p.Text, "untouched document passages must survive byte-identical")
		case "a.txt":
			if p.Text == "Alpha rewritten." {
				sawRewritten = true
			}
		}
	}
	require.True(t, sawRewritten)
}

func TestReloadInvalidatesRetrievalCache(t *testing.T) {
	f := newFixture(t, map[string]string{"sky.txt": "The sky is blue."})
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)

	_, err := f.pipeline.Ask(context.Background(), "What color is the sky?", nil)
	require.NoError(t, err)
	require.Contains(t, f.lastPrompt(), "The sky is blue.")

	f.source.Set("sky.txt", "The sky is grey today.")
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "sky.txt", nil).Status)

	_, err = f.pipeline.Ask(context.Background(), "What color is the sky?", nil)
	require.NoError(t, err)
	require.Contains(t, f.lastPrompt(), "The sky is grey today.", "stale cached passages must not survive a reload")
}

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.txt": "Alpha.",
		"b.txt": "Beta.",
	})

	require.Equal(t, "degraded", f.pipeline.Health().Status)

	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)
	health := f.pipeline.Health()
	require.Equal(t, "ok", health.Status)
	require.Equal(t, uint64(1), health.Generation)
	require.Equal(t, 2, health.Documents)
	require.Equal(t, 2, health.Passages)
}

func TestAskDuringReload(t *testing.T) {
	docs := map[string]string{}
	for i := 0; i < 8; i++ {
		docs[fmt.Sprintf("doc%d.txt", i)] = fmt.Sprintf("Fact number %d.\n\nAnother fact about %d.", i, i)
	}
	f := newFixture(t, docs)
	require.Equal(t, "ok", f.pipeline.Reload(context.Background(), "", nil).Status)

	stop := make(chan struct{})
	errs := make(chan error, 64)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				answer, err := f.pipeline.Ask(context.Background(), "What is fact number three?", nil)
				if err != nil {
					errs <- err
					return
				}
				scores := make([]float64, len(answer.Sources))
				for j, src := range answer.Sources {
					scores[j] = src.Score
				}
				if !sort.SliceIsSorted(scores, func(a, b int) bool { return scores[a] > scores[b] }) {
					errs <- fmt.Errorf("sources not ranked by score: %v", scores)
					return
				}
			}
		}()
	}

	for i := 0; i < 5; i++ {
		result := f.pipeline.Reload(context.Background(), "", nil)
		if result.Status != "ok" {
			// a concurrent reload attempt is the only acceptable failure
			require.Contains(t, result.Err, "build")
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
