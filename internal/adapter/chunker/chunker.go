package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docqa/internal/port"
)

// Strategy names accepted in configuration.
const (
	StrategyParagraph = "paragraph"
	StrategySentence  = "sentence"
	StrategyFixed     = "fixed"
)

// New returns the chunker for the configured strategy. size and overlap are
// measured in runes, so multibyte text is budgeted the same as ASCII.
func New(strategy string, size, overlap int) (port.Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
	}

	switch strategy {
	case StrategyParagraph:
		return &ParagraphChunker{size: size}, nil
	case StrategySentence:
		return &SentenceChunker{size: size, overlap: overlap}, nil
	case StrategyFixed:
		return &FixedChunker{size: size, overlap: overlap}, nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %q", strategy)
	}
}

// splitSentences splits text after terminal punctuation followed by
// whitespace. Pure rune scanning keeps the output identical across runs.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cur.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// consume trailing closers so quotes stay attached
		for i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\'' || runes[i+1] == ')') {
			i++
			cur.WriteRune(runes[i])
		}
		if i+1 >= len(runes) || isSpaceRune(runes[i+1]) {
			if s := strings.TrimSpace(cur.String()); s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// runeLen is the unit all size budgeting uses.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitByLength hard-splits text into rune windows of at most size,
// used for sentences and paragraphs that exceed the chunk size on their own.
func splitByLength(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func toCandidates(texts []string) []port.Candidate {
	candidates := make([]port.Candidate, 0, len(texts))
	for _, text := range texts {
		candidates = append(candidates, port.Candidate{
			Text:    text,
			Ordinal: len(candidates),
		})
	}
	return candidates
}
