package chunker

import (
	"regexp"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var paragraphSep = regexp.MustCompile(`\n[ \t]*\n+`)

// ParagraphChunker groups blank-line separated paragraphs into passages of
// at most size runes. Paragraph boundaries already carry the semantic
// break, so this strategy does not overlap passages.
type ParagraphChunker struct {
	size int
}

func (c *ParagraphChunker) Strategy() string {
	return StrategyParagraph
}

func (c *ParagraphChunker) Chunk(doc domain.Document, content string) ([]port.Candidate, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}
	if runeLen(trimmed) <= c.size {
		return toCandidates([]string{trimmed}), nil
	}

	var texts []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		texts = append(texts, strings.Join(cur, "\n\n"))
		cur, curLen = nil, 0
	}

	for _, para := range paragraphSep.Split(trimmed, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := runeLen(para)

		if paraLen > c.size {
			flush()
			texts = append(texts, splitLongBlock(para, c.size)...)
			continue
		}

		if curLen > 0 && curLen+2+paraLen > c.size {
			flush()
		}
		cur = append(cur, para)
		curLen += paraLen
		if len(cur) > 1 {
			curLen += 2 // joining blank line
		}
	}
	flush()

	return toCandidates(texts), nil
}

// splitLongBlock splits an oversize paragraph at sentence boundaries,
// falling back to hard rune windows for sentences that still do not fit.
func splitLongBlock(text string, size int) []string {
	var parts []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		parts = append(parts, strings.Join(cur, " "))
		cur, curLen = nil, 0
	}

	for _, sentence := range splitSentences(text) {
		sentenceLen := runeLen(sentence)
		if sentenceLen > size {
			flush()
			parts = append(parts, splitByLength(sentence, size)...)
			continue
		}
		if curLen > 0 && curLen+1+sentenceLen > size {
			flush()
		}
		cur = append(cur, sentence)
		curLen += sentenceLen
		if len(cur) > 1 {
			curLen++ // joining space
		}
	}
	flush()

	if len(parts) == 0 {
		// no sentence boundaries at all
		return splitByLength(text, size)
	}
	return parts
}
