package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docqa/internal/artifact"
	"docqa/internal/domain"
	"docqa/internal/index"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	defer s.Close()

	// nothing persisted yet
	loaded, err := s.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)

	passages := []domain.Passage{
		{ID: 0, Text: "the sky is blue", Source: "a.txt", Ordinal: 0},
		{ID: 1, Text: "grass is green", Source: "a.txt", Ordinal: 1},
		{ID: 2, Text: "water is wet", Source: "b.txt", Ordinal: 0},
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	idx, err := index.Build(2, vectors)
	require.NoError(t, err)

	manifest := domain.Manifest{
		Generation: 1,
		BuiltAt:    time.Now().UTC().Truncate(time.Second),
		EmbedModel: "mock",
		Dimension:  2,
		Strategy:   "paragraph",
		ChunkSize:  512,
		Documents:  map[string]int64{"a.txt": 100, "b.txt": 200},
		Passages:   3,
	}

	require.NoError(t, s.Save(artifact.New(manifest, idx, passages)))

	loaded, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NoError(t, artifact.Validate(loaded))

	require.Equal(t, manifest.Generation, loaded.Manifest.Generation)
	require.Equal(t, manifest.EmbedModel, loaded.Manifest.EmbedModel)
	require.Equal(t, manifest.Documents, loaded.Manifest.Documents)
	require.Equal(t, passages, loaded.Passages())

	// retrieval rankings survive the round trip
	hits, err := loaded.Index.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, 0, hits[0].Position)
}

func TestSaveReplacesPreviousGeneration(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	defer s.Close()

	big := makeArtifact(t, 5, 1)
	require.NoError(t, s.Save(big))

	small := makeArtifact(t, 2, 2)
	require.NoError(t, s.Save(small))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Size())
	require.Equal(t, uint64(2), loaded.Manifest.Generation)
	require.NoError(t, artifact.Validate(loaded))
}

func makeArtifact(t *testing.T, n int, gen uint64) *artifact.Artifact {
	t.Helper()
	passages := make([]domain.Passage, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		passages[i] = domain.Passage{ID: i, Text: "passage text", Source: "a.txt", Ordinal: i}
		vectors[i] = []float32{float32(i), 1}
	}
	idx, err := index.Build(2, vectors)
	require.NoError(t, err)
	return artifact.New(domain.Manifest{
		Generation: gen,
		Dimension:  2,
		Passages:   n,
	}, idx, passages)
}
