package artifact

import (
	"fmt"

	"docqa/internal/domain"
	"docqa/internal/index"
)

// Artifact is one immutable generation of the searchable corpus: the vector
// index, the positionally-aligned passages, and the manifest describing the
// build. It is read-only once constructed; reload replaces the whole value.
type Artifact struct {
	Manifest domain.Manifest
	Index    *index.Flat
	passages []domain.Passage
}

func New(manifest domain.Manifest, idx *index.Flat, passages []domain.Passage) *Artifact {
	return &Artifact{
		Manifest: manifest,
		Index:    idx,
		passages: passages,
	}
}

// Passage resolves an index position to its passage.
func (a *Artifact) Passage(position int) (domain.Passage, bool) {
	if position < 0 || position >= len(a.passages) {
		return domain.Passage{}, false
	}
	return a.passages[position], true
}

// Passages returns all passages in positional order, for persistence.
func (a *Artifact) Passages() []domain.Passage {
	return a.passages
}

// Size returns the passage count.
func (a *Artifact) Size() int {
	return len(a.passages)
}

// Validate checks the structural invariants an artifact must satisfy before
// it may serve queries. A violation is always a build failure; a validated
// artifact never trips these at runtime.
func Validate(a *Artifact) error {
	if a.Index == nil {
		return fmt.Errorf("%w: artifact has no index", domain.ErrIntegrity)
	}
	if a.Index.Size() != len(a.passages) {
		return fmt.Errorf("%w: index holds %d vectors but metadata holds %d passages",
			domain.ErrIntegrity, a.Index.Size(), len(a.passages))
	}
	if a.Manifest.Dimension != a.Index.Dimension() {
		return fmt.Errorf("%w: manifest dimension %d does not match index dimension %d",
			domain.ErrIntegrity, a.Manifest.Dimension, a.Index.Dimension())
	}
	if a.Manifest.Passages != len(a.passages) {
		return fmt.Errorf("%w: manifest records %d passages but metadata holds %d",
			domain.ErrIntegrity, a.Manifest.Passages, len(a.passages))
	}
	for i, p := range a.passages {
		if p.ID != i {
			return fmt.Errorf("%w: passage at position %d carries id %d", domain.ErrIntegrity, i, p.ID)
		}
		if p.Text == "" {
			return fmt.Errorf("%w: passage %d has empty text", domain.ErrIntegrity, i)
		}
	}
	return nil
}

// Store persists artifacts across process restarts. The format is opaque to
// the manager; any lossless round-trip of manifest, passages and vectors
// will do.
type Store interface {
	// Save persists the artifact, replacing any previous one.
	Save(a *Artifact) error

	// Load restores the persisted artifact, or returns (nil, nil) when
	// nothing has been persisted yet.
	Load() (*Artifact, error)
}
