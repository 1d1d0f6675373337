package chunker

import (
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// SentenceChunker accumulates whole sentences into passages of at most size
// runes, carrying up to overlap runes of trailing sentences into the next
// passage for context continuity.
type SentenceChunker struct {
	size    int
	overlap int
}

func (c *SentenceChunker) Strategy() string {
	return StrategySentence
}

func (c *SentenceChunker) Chunk(doc domain.Document, content string) ([]port.Candidate, error) {
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
	carried := 0 // sentences in cur that came from the previous passage

	// cur holding only carried sentences is already covered by the
	// previous passage's tail; flushing it would emit a pure duplicate
	flush := func() {
		if len(cur) <= carried {
			cur, curLen, carried = nil, 0, 0
			return
		}
		texts = append(texts, strings.Join(cur, " "))
		cur, curLen = c.overlapTail(cur)
		carried = len(cur)
	}

	for _, sentence := range splitSentences(trimmed) {
		sentenceLen := runeLen(sentence)
		if sentenceLen > c.size {
			flush()
			cur, curLen, carried = nil, 0, 0
			texts = append(texts, splitByLength(sentence, c.size)...)
			continue
		}
		if curLen > 0 && curLen+1+sentenceLen > c.size {
			flush()
		}
		cur = append(cur, sentence)
		curLen += sentenceLen
		if len(cur) > 1 {
			curLen++ // joining space
		}
	}
	// emit the remainder unless it is purely overlap already covered above
	if len(cur) > carried {
		texts = append(texts, strings.Join(cur, " "))
	}

	return toCandidates(texts), nil
}

// overlapTail returns the trailing sentences of the flushed passage that fit
// within the overlap budget, seeding the next passage.
func (c *SentenceChunker) overlapTail(sentences []string) ([]string, int) {
	if c.overlap == 0 {
		return nil, 0
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		cost := runeLen(sentences[i])
		if total > 0 {
			cost++
		}
		if total+cost > c.overlap {
			break
		}
		total += cost
		start = i
	}
	if start == len(sentences) {
		return nil, 0
	}

	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail, total
}
