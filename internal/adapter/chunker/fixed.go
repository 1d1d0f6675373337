package chunker

import (
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// FixedChunker slides a fixed rune window over the document with the
// configured overlap. Oblivious to structure, but its output depends only
// on size and overlap, which makes it the cheapest reproducible strategy.
type FixedChunker struct {
	size    int
	overlap int
}

func (c *FixedChunker) Strategy() string {
	return StrategyFixed
}

func (c *FixedChunker) Chunk(doc domain.Document, content string) ([]port.Candidate, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}

	runes := []rune(trimmed)
	if len(runes) <= c.size {
		return toCandidates([]string{trimmed}), nil
	}

	step := c.size - c.overlap
	var texts []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			texts = append(texts, s)
		}
		if end == len(runes) {
			break
		}
	}

	return toCandidates(texts), nil
}
