package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCorpusSourceListAndRead(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "docs/b.txt", "beta")
	writeFile(t, root, "docs/c.md", "gamma")
	writeFile(t, root, "skip/d.txt", "delta")
	writeFile(t, root, "e.bin", "binary")

	src, err := NewCorpusSource(root, []string{"**/*.txt", "**/*.md"}, []string{"skip/**"})
	if err != nil {
		t.Fatal(err)
	}

	docs, err := src.List()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a.txt", "docs/b.txt", "docs/c.md"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i, id := range want {
		if docs[i].ID != id {
			t.Errorf("document %d: expected %s, got %s", i, id, docs[i].ID)
		}
		if docs[i].ModTime.IsZero() {
			t.Errorf("document %s has zero mod time", id)
		}
	}

	content, err := src.Read("docs/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != "beta" {
		t.Errorf("expected %q, got %q", "beta", content)
	}

	if _, err := src.Read("missing.txt"); err == nil {
		t.Error("expected error for missing document")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
