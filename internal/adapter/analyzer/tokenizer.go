package analyzer

import "unicode"

// Tokenizer estimates model-native token counts for budget decisions.
type Tokenizer struct{}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// CountTokens returns an approximate token count for LLM budget estimation.
// Average English word is about 1.3 subword tokens.
func (t *Tokenizer) CountTokens(text string) int {
	words := countWords(text)
	if words == 0 {
		return 0
	}
	return int(float64(words) * 1.3)
}

func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
