package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"docqa/internal/domain"
)

// CorpusSource lists and reads text documents under a root directory,
// filtered by doublestar include/exclude glob patterns. Document IDs are
// root-relative paths with forward slashes, so they are stable across hosts.
type CorpusSource struct {
	root     string
	includes []string
	excludes []string
}

func NewCorpusSource(root string, includes, excludes []string) (*CorpusSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus root: %w", err)
	}
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &CorpusSource{
		root:     abs,
		includes: includes,
		excludes: excludes,
	}, nil
}

func (s *CorpusSource) List() ([]domain.Document, error) {
	var docs []domain.Document

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && s.matchesAny(s.excludes, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.matchesAny(s.includes, rel) && !s.matchesAny(s.excludes, rel) {
			docs = append(docs, domain.Document{
				ID:      rel,
				Path:    path,
				ModTime: info.ModTime(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	// deterministic build order
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *CorpusSource) Read(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(id)))
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return string(data), nil
}

func (s *CorpusSource) matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
