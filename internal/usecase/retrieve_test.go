package usecase_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/artifact"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

func newRetrieverFixture(t *testing.T, docs map[string]string) (*usecase.Retriever, *artifact.Manager) {
	t.Helper()
	c, err := chunker.New(chunker.StrategyParagraph, 256, 0)
	require.NoError(t, err)
	embedder := embedding.NewMockEmbedder(16)
	manager := artifact.NewManager(newMemSource(docs), c, embedder, nil, artifact.Params{
		Strategy:  chunker.StrategyParagraph,
		ChunkSize: 256,
	})
	return usecase.NewRetriever(embedder, manager), manager
}

func TestRetrieveRankedAndBounded(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{
		"a.txt": "The sky is blue.\n\nGrass is green.\n\nWater is wet.",
		"b.txt": "Fire is hot.\n\nSnow is cold.",
	})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	results, err := retriever.Retrieve(context.Background(), "what color is the sky", 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	}), "results must be ranked by descending similarity")
	for _, r := range results {
		require.NotEmpty(t, r.Passage.Text)
		require.GreaterOrEqual(t, r.Score, -1.0)
		require.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestRetrieveKLargerThanCorpus(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{"a.txt": "The sky is blue."})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	results, err := retriever.Retrieve(context.Background(), "sky", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestRetrieveNoArtifact(t *testing.T) {
	retriever, _ := newRetrieverFixture(t, map[string]string{"a.txt": "The sky is blue."})

	results, err := retriever.Retrieve(context.Background(), "sky", 3, nil)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRetrieveNonPositiveK(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{"a.txt": "The sky is blue."})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	results, err := retriever.Retrieve(context.Background(), "sky", 0, nil)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRetrieveSourceFilter(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{
		"a.txt": "The sky is blue.\n\nGrass is green.",
		"b.txt": "Fire is hot.\n\nSnow is cold.",
	})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	filter := &domain.Filter{Conditions: []domain.Condition{
		{Field: domain.FieldSource, Op: domain.OpEq, Value: "b.txt"},
	}}
	results, err := retriever.Retrieve(context.Background(), "anything", 3, filter)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.Equal(t, "b.txt", r.Passage.Source)
	}
}

func TestRetrieveOrdinalRangeFilter(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{
		"a.txt": "One.\n\nTwo.\n\nThree.\n\nFour.",
	})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	filter := &domain.Filter{Conditions: []domain.Condition{
		{Field: domain.FieldOrdinal, Op: domain.OpGte, Value: "2"},
	}}
	results, err := retriever.Retrieve(context.Background(), "anything", 10, filter)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Passage.Ordinal, 2)
	}
}

func TestRetrieveFilterMatchesNothing(t *testing.T) {
	retriever, manager := newRetrieverFixture(t, map[string]string{"a.txt": "The sky is blue."})
	_, err := manager.Rebuild(context.Background(), "", nil)
	require.NoError(t, err)

	filter := &domain.Filter{Conditions: []domain.Condition{
		{Field: domain.FieldSource, Op: domain.OpEq, Value: "missing.txt"},
	}}
	results, err := retriever.Retrieve(context.Background(), "sky", 3, filter)
	require.NoError(t, err)
	require.Empty(t, results)
}
